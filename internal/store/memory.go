package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type record = map[string]types.AttributeValue

// MemoryTable is an in-process Table. Items are kept in their marshalled
// attribute form so the dynamodbav tags behave as they do against DynamoDB.
// It backs local development and the service tests.
type MemoryTable[T any] struct {
	mu     sync.RWMutex
	schema Schema
	items  map[Key]record

	errors    map[string]error
	keyErrors map[string]map[Key]error
}

// NewMemoryTable creates an empty in-memory table.
func NewMemoryTable[T any](schema Schema) *MemoryTable[T] {
	return &MemoryTable[T]{
		schema:    schema,
		items:     make(map[Key]record),
		errors:    make(map[string]error),
		keyErrors: make(map[string]map[Key]error),
	}
}

// SetError makes every call to method fail with err. A nil err clears it.
func (m *MemoryTable[T]) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, method)
		return
	}
	m.errors[method] = err
}

// SetKeyError makes calls to method for key fail with err.
func (m *MemoryTable[T]) SetKeyError(method string, key Key, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keyErrors[method] == nil {
		m.keyErrors[method] = make(map[Key]error)
	}
	m.keyErrors[method][key] = err
}

// Len returns the number of stored items.
func (m *MemoryTable[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *MemoryTable[T]) injected(method string, key *Key) error {
	if err, ok := m.errors[method]; ok {
		return err
	}
	if key != nil {
		if err, ok := m.keyErrors[method][*key]; ok && err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryTable[T]) Get(ctx context.Context, key Key) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("Get", &key); err != nil {
		return nil, err
	}

	rec, ok := m.items[key]
	if !ok {
		return nil, nil
	}
	return decode[T](rec)
}

func (m *MemoryTable[T]) QueryByPartition(ctx context.Context, partition string) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("QueryByPartition", nil); err != nil {
		return nil, err
	}

	return m.collect(func(k Key, _ record) bool { return k.Partition == partition })
}

func (m *MemoryTable[T]) QueryByIndex(ctx context.Context, index, indexKey string, filter Filter) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("QueryByIndex", nil); err != nil {
		return nil, err
	}

	attr, err := m.schema.indexKey(index)
	if err != nil {
		return nil, err
	}
	return m.collect(func(_ Key, rec record) bool {
		if v, ok := stringAttr(rec, attr); !ok || v != indexKey {
			return false
		}
		if filter.IsZero() {
			return true
		}
		v, ok := stringAttr(rec, filter.Attribute)
		return ok && v == filter.Value
	})
}

func (m *MemoryTable[T]) Put(ctx context.Context, item T, cond Precondition) error {
	rec, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	key, err := m.keyOf(rec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("Put", &key); err != nil {
		return err
	}

	if !m.holds(key, cond) {
		return fmt.Errorf("%w: put %s on %s", ErrPreconditionFailed, cond, m.schema.TableName)
	}
	m.items[key] = rec
	return nil
}

func (m *MemoryTable[T]) Update(ctx context.Context, key Key, set Assignments, cond Precondition) (*T, error) {
	if len(set) == 0 {
		return nil, errors.New("update requires at least one assignment")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("Update", &key); err != nil {
		return nil, err
	}

	if !m.holds(key, cond) {
		return nil, m.conditionError("update", cond)
	}

	next := make(record)
	if current, ok := m.items[key]; ok {
		for k, v := range current {
			next[k] = v
		}
	} else {
		next[m.schema.PartitionKey] = &types.AttributeValueMemberS{Value: key.Partition}
		next[m.schema.SortKey] = &types.AttributeValueMemberS{Value: key.Sort}
	}
	for name, value := range set {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		next[name] = av
	}

	m.items[key] = next
	return decode[T](next)
}

func (m *MemoryTable[T]) Delete(ctx context.Context, key Key, cond Precondition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("Delete", &key); err != nil {
		return err
	}

	if !m.holds(key, cond) {
		return m.conditionError("delete", cond)
	}
	delete(m.items, key)
	return nil
}

func (m *MemoryTable[T]) holds(key Key, cond Precondition) bool {
	_, exists := m.items[key]
	switch cond {
	case MustExist:
		return exists
	case MustNotExist:
		return !exists
	default:
		return true
	}
}

func (m *MemoryTable[T]) conditionError(op string, cond Precondition) error {
	if cond == MustExist {
		return fmt.Errorf("%w: %s on %s", ErrNotFound, op, m.schema.TableName)
	}
	return fmt.Errorf("%w: %s %s on %s", ErrPreconditionFailed, op, cond, m.schema.TableName)
}

func (m *MemoryTable[T]) keyOf(rec record) (Key, error) {
	pk, ok := stringAttr(rec, m.schema.PartitionKey)
	if !ok || pk == "" {
		return Key{}, fmt.Errorf("item is missing partition key %s", m.schema.PartitionKey)
	}
	sk, ok := stringAttr(rec, m.schema.SortKey)
	if !ok || sk == "" {
		return Key{}, fmt.Errorf("item is missing sort key %s", m.schema.SortKey)
	}
	return Key{Partition: pk, Sort: sk}, nil
}

// collect returns matching items ordered by partition then sort key, the
// order a DynamoDB query returns them in.
func (m *MemoryTable[T]) collect(match func(Key, record) bool) ([]T, error) {
	keys := make([]Key, 0)
	for k, rec := range m.items {
		if match(k, rec) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Partition != keys[j].Partition {
			return keys[i].Partition < keys[j].Partition
		}
		return keys[i].Sort < keys[j].Sort
	})

	items := make([]T, 0, len(keys))
	for _, k := range keys {
		item, err := decode[T](m.items[k])
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func decode[T any](rec record) (*T, error) {
	var item T
	if err := attributevalue.UnmarshalMap(rec, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return &item, nil
}

func stringAttr(rec record, name string) (string, bool) {
	s, ok := rec[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

var _ Table[struct{}] = (*MemoryTable[struct{}])(nil)
