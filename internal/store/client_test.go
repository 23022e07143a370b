package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/RedDeadth/Typeimp-Repository/internal/observability"
)

func testBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "dynamodb",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
}

func TestBreakerClient_OpensAfterFailures(t *testing.T) {
	metrics := observability.NewMetrics("test")
	inner := &mockDynamoDB{
		GetItemFn: func(context.Context, *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	client := NewBreakerClient(inner, testBreakerSettings(), zap.NewNop(), metrics)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.GetItem(ctx, &dynamodb.GetItemInput{})
		require.Error(t, err)
	}
	assert.Equal(t, 2, inner.calls)

	_, err := client.GetItem(ctx, &dynamodb.GetItemInput{})
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, float64(gobreaker.StateOpen), testutil.ToFloat64(metrics.BreakerState.WithLabelValues("dynamodb")))

	table := NewDynamoTable[testItem](client, testSchema, zap.NewNop())
	_, err = table.Get(ctx, Key{Partition: "u1", Sort: "n1"})
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestBreakerClient_ConditionFailuresDoNotTrip(t *testing.T) {
	inner := &mockDynamoDB{
		DeleteItemFn: func(context.Context, *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			return nil, conditionFailed()
		},
	}
	client := NewBreakerClient(inner, testBreakerSettings(), zap.NewNop(), nil)

	for i := 0; i < 5; i++ {
		_, err := client.DeleteItem(context.Background(), &dynamodb.DeleteItemInput{})
		assert.True(t, isConditionFailure(err))
	}
	assert.Equal(t, 5, inner.calls)
}

func TestBreakerClient_PassesOutput(t *testing.T) {
	inner := &mockDynamoDB{
		QueryFn: func(context.Context, *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Count: 3}, nil
		},
	}
	client := NewBreakerClient(inner, testBreakerSettings(), zap.NewNop(), nil)

	out, err := client.Query(context.Background(), &dynamodb.QueryInput{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), out.Count)
}

func TestObservedClient_RecordsOutcomes(t *testing.T) {
	metrics := observability.NewMetrics("test")
	inner := &mockDynamoDB{
		PutItemFn: func(_ context.Context, in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			if in.ConditionExpression != nil {
				return nil, conditionFailed()
			}
			return &dynamodb.PutItemOutput{}, nil
		},
		DeleteItemFn: func(context.Context, *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			return nil, errors.New("boom")
		},
	}
	client := NewObservedClient(inner, metrics, noop.NewTracerProvider().Tracer("test"))
	ctx := context.Background()

	_, err := client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String("notesTable")})
	require.NoError(t, err)
	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String("notesTable"), ConditionExpression: aws.String("x")})
	require.Error(t, err)
	_, err = client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: aws.String("notesTable")})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("notesTable", "PutItem", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("notesTable", "PutItem", "condition_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("notesTable", "DeleteItem", "error")))
}
