package store

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type testItem struct {
	Owner    string `dynamodbav:"userId"`
	ID       string `dynamodbav:"noteId"`
	Category string `dynamodbav:"categoryId"`
	Title    string `dynamodbav:"title"`
}

var testSchema = Schema{
	TableName:    "notesTable",
	PartitionKey: "userId",
	SortKey:      "noteId",
	Indexes:      map[string]string{"categoryId-index": "categoryId"},
}

// mockDynamoDB lets each test replace only the calls it exercises.
type mockDynamoDB struct {
	GetItemFn    func(ctx context.Context, in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	PutItemFn    func(ctx context.Context, in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	UpdateItemFn func(ctx context.Context, in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	DeleteItemFn func(ctx context.Context, in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	QueryFn      func(ctx context.Context, in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error)

	calls int
}

func (m *mockDynamoDB) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.calls++
	if m.GetItemFn == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return m.GetItemFn(ctx, in)
}

func (m *mockDynamoDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.calls++
	if m.PutItemFn == nil {
		return &dynamodb.PutItemOutput{}, nil
	}
	return m.PutItemFn(ctx, in)
}

func (m *mockDynamoDB) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.calls++
	if m.UpdateItemFn == nil {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	return m.UpdateItemFn(ctx, in)
}

func (m *mockDynamoDB) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.calls++
	if m.DeleteItemFn == nil {
		return &dynamodb.DeleteItemOutput{}, nil
	}
	return m.DeleteItemFn(ctx, in)
}

func (m *mockDynamoDB) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.calls++
	if m.QueryFn == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return m.QueryFn(ctx, in)
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: stringPtr("The conditional request failed")}
}

func stringPtr(s string) *string { return &s }

func TestPreconditionString(t *testing.T) {
	cases := map[Precondition]string{
		None:            "none",
		MustExist:       "must-exist",
		MustNotExist:    "must-not-exist",
		Precondition(9): "precondition(9)",
	}
	for p, want := range cases {
		if got := p.String(); got != want {
			t.Errorf("Precondition(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}
