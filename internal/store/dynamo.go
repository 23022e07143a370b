package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// DynamoTable implements Table on top of a DynamoDB table.
type DynamoTable[T any] struct {
	client DynamoDBAPI
	schema Schema
	logger *zap.Logger
}

// NewDynamoTable creates a table bound to schema.TableName.
func NewDynamoTable[T any](client DynamoDBAPI, schema Schema, logger *zap.Logger) *DynamoTable[T] {
	return &DynamoTable[T]{
		client: client,
		schema: schema,
		logger: logger.With(zap.String("table", schema.TableName)),
	}
}

// Get retrieves a single item by its full key.
func (t *DynamoTable[T]) Get(ctx context.Context, key Key) (*T, error) {
	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.schema.TableName),
		Key:       t.key(key),
	})
	if err != nil {
		return nil, t.fail("GetItem", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item T
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return &item, nil
}

// QueryByPartition reads every page of a partition query.
func (t *DynamoTable[T]) QueryByPartition(ctx context.Context, partition string) ([]T, error) {
	keyCond := expression.Key(t.schema.PartitionKey).Equal(expression.Value(partition))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return t.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(t.schema.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// QueryByIndex reads every page of a secondary index query, applying filter
// server side.
func (t *DynamoTable[T]) QueryByIndex(ctx context.Context, index, indexKey string, filter Filter) ([]T, error) {
	attr, err := t.schema.indexKey(index)
	if err != nil {
		return nil, err
	}

	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key(attr).Equal(expression.Value(indexKey)))
	if !filter.IsZero() {
		builder = builder.WithFilter(expression.Name(filter.Attribute).Equal(expression.Value(filter.Value)))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return t.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(t.schema.TableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// Put writes a whole item.
func (t *DynamoTable[T]) Put(ctx context.Context, item T, cond Precondition) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(t.schema.TableName),
		Item:      av,
	}
	if cond != None {
		expr, err := t.conditionExpression(cond)
		if err != nil {
			return err
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := t.client.PutItem(ctx, input); err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("%w: put %s on %s", ErrPreconditionFailed, cond, t.schema.TableName)
		}
		return t.fail("PutItem", err)
	}
	return nil
}

// Update applies SET assignments and returns the item as stored afterwards.
func (t *DynamoTable[T]) Update(ctx context.Context, key Key, set Assignments, cond Precondition) (*T, error) {
	if len(set) == 0 {
		return nil, errors.New("update requires at least one assignment")
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	update := expression.Set(expression.Name(names[0]), expression.Value(set[names[0]]))
	for _, name := range names[1:] {
		update = update.Set(expression.Name(name), expression.Value(set[name]))
	}

	builder := expression.NewBuilder().WithUpdate(update)
	if cond != None {
		c, err := t.condition(cond)
		if err != nil {
			return nil, err
		}
		builder = builder.WithCondition(c)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	out, err := t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.schema.TableName),
		Key:                       t.key(key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailure(err) {
			return nil, t.conditionError("update", cond)
		}
		return nil, t.fail("UpdateItem", err)
	}

	var item T
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated item: %w", err)
	}
	return &item, nil
}

// Delete removes a single item by its full key.
func (t *DynamoTable[T]) Delete(ctx context.Context, key Key, cond Precondition) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(t.schema.TableName),
		Key:       t.key(key),
	}
	if cond != None {
		expr, err := t.conditionExpression(cond)
		if err != nil {
			return err
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := t.client.DeleteItem(ctx, input); err != nil {
		if isConditionFailure(err) {
			return t.conditionError("delete", cond)
		}
		return t.fail("DeleteItem", err)
	}
	return nil
}

func (t *DynamoTable[T]) query(ctx context.Context, input *dynamodb.QueryInput) ([]T, error) {
	items := make([]T, 0)
	paginator := dynamodb.NewQueryPaginator(t.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, t.fail("Query", err)
		}

		var batch []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal query page: %w", err)
		}
		items = append(items, batch...)
	}
	return items, nil
}

func (t *DynamoTable[T]) key(k Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		t.schema.PartitionKey: &types.AttributeValueMemberS{Value: k.Partition},
		t.schema.SortKey:      &types.AttributeValueMemberS{Value: k.Sort},
	}
}

// condition checks the sort key attribute, which every stored item carries.
func (t *DynamoTable[T]) condition(cond Precondition) (expression.ConditionBuilder, error) {
	switch cond {
	case MustExist:
		return expression.AttributeExists(expression.Name(t.schema.SortKey)), nil
	case MustNotExist:
		return expression.AttributeNotExists(expression.Name(t.schema.SortKey)), nil
	default:
		return expression.ConditionBuilder{}, fmt.Errorf("unsupported precondition %s", cond)
	}
}

func (t *DynamoTable[T]) conditionExpression(cond Precondition) (expression.Expression, error) {
	c, err := t.condition(cond)
	if err != nil {
		return expression.Expression{}, err
	}
	expr, err := expression.NewBuilder().WithCondition(c).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("failed to build expression: %w", err)
	}
	return expr, nil
}

func (t *DynamoTable[T]) conditionError(op string, cond Precondition) error {
	if cond == MustExist {
		return fmt.Errorf("%w: %s on %s", ErrNotFound, op, t.schema.TableName)
	}
	return fmt.Errorf("%w: %s %s on %s", ErrPreconditionFailed, op, cond, t.schema.TableName)
}

func (t *DynamoTable[T]) fail(op string, err error) error {
	fields := []zap.Field{zap.String("operation", op), zap.Error(err)}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.String("error_code", apiErr.ErrorCode()))
	}
	t.logger.Error("DynamoDB request failed", fields...)
	return unavailable(op, t.schema.TableName, err)
}

func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

var _ Table[struct{}] = (*DynamoTable[struct{}])(nil)
