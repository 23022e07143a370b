package store

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/RedDeadth/Typeimp-Repository/internal/observability"
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ DynamoDBAPI = (*dynamodb.Client)(nil)

// BreakerSettings configures the circuit breaker guarding the client.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

type breakerClient struct {
	inner DynamoDBAPI
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerClient guards inner with a circuit breaker. While the breaker is
// open calls fail fast with gobreaker.ErrOpenState, which the table reports
// as ErrUnavailable. Failed conditional checks and cancelled contexts do not
// count against the breaker.
func NewBreakerClient(inner DynamoDBAPI, settings BreakerSettings, logger *zap.Logger, metrics *observability.Metrics) DynamoDBAPI {
	st := gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if metrics != nil {
				metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isConditionFailure(err) || errors.Is(err, context.Canceled)
		},
	}
	if metrics != nil {
		metrics.BreakerState.WithLabelValues(settings.Name).Set(float64(gobreaker.StateClosed))
	}
	return &breakerClient{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

func guarded[O any](cb *gobreaker.CircuitBreaker, fn func() (*O, error)) (*O, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	o, _ := out.(*O)
	return o, nil
}

func (c *breakerClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return guarded(c.cb, func() (*dynamodb.GetItemOutput, error) { return c.inner.GetItem(ctx, params, optFns...) })
}

func (c *breakerClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return guarded(c.cb, func() (*dynamodb.PutItemOutput, error) { return c.inner.PutItem(ctx, params, optFns...) })
}

func (c *breakerClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return guarded(c.cb, func() (*dynamodb.UpdateItemOutput, error) { return c.inner.UpdateItem(ctx, params, optFns...) })
}

func (c *breakerClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return guarded(c.cb, func() (*dynamodb.DeleteItemOutput, error) { return c.inner.DeleteItem(ctx, params, optFns...) })
}

func (c *breakerClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return guarded(c.cb, func() (*dynamodb.QueryOutput, error) { return c.inner.Query(ctx, params, optFns...) })
}

type observedClient struct {
	inner   DynamoDBAPI
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// NewObservedClient records a span and Prometheus samples for every call.
func NewObservedClient(inner DynamoDBAPI, metrics *observability.Metrics, tracer trace.Tracer) DynamoDBAPI {
	return &observedClient{inner: inner, metrics: metrics, tracer: tracer}
}

func observe[O any](ctx context.Context, c *observedClient, op string, table *string, fn func(context.Context) (*O, error)) (*O, error) {
	name := aws.ToString(table)
	ctx, span := c.tracer.Start(ctx, "DynamoDB."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "dynamodb"),
			attribute.String("db.operation", op),
			attribute.String("aws.dynamodb.table_names", name),
		))
	defer span.End()

	start := time.Now()
	out, err := fn(ctx)

	outcome := "ok"
	if err != nil {
		if isConditionFailure(err) {
			outcome = "condition_failed"
		} else {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	c.metrics.StoreOperations.WithLabelValues(name, op, outcome).Inc()
	c.metrics.StoreDuration.WithLabelValues(name, op).Observe(time.Since(start).Seconds())
	return out, err
}

func (c *observedClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return observe(ctx, c, "GetItem", params.TableName, func(ctx context.Context) (*dynamodb.GetItemOutput, error) {
		return c.inner.GetItem(ctx, params, optFns...)
	})
}

func (c *observedClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return observe(ctx, c, "PutItem", params.TableName, func(ctx context.Context) (*dynamodb.PutItemOutput, error) {
		return c.inner.PutItem(ctx, params, optFns...)
	})
}

func (c *observedClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return observe(ctx, c, "UpdateItem", params.TableName, func(ctx context.Context) (*dynamodb.UpdateItemOutput, error) {
		return c.inner.UpdateItem(ctx, params, optFns...)
	})
}

func (c *observedClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return observe(ctx, c, "DeleteItem", params.TableName, func(ctx context.Context) (*dynamodb.DeleteItemOutput, error) {
		return c.inner.DeleteItem(ctx, params, optFns...)
	})
}

func (c *observedClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return observe(ctx, c, "Query", params.TableName, func(ctx context.Context) (*dynamodb.QueryOutput, error) {
		return c.inner.Query(ctx, params, optFns...)
	})
}
