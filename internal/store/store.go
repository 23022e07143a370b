// Package store is the key-value persistence layer for the service.
//
// A Table is one DynamoDB table addressed by a partition key and a sort key.
// Writes can carry an existence precondition that the backend evaluates
// atomically per item; nothing here spans more than one item. Backend and
// transport failures are reported as ErrUnavailable and are never retried.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Update and Delete when a MustExist
	// precondition does not hold.
	ErrNotFound = errors.New("item not found")

	// ErrPreconditionFailed is returned by Put when its precondition does not hold.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrUnavailable wraps every backend or transport failure.
	ErrUnavailable = errors.New("store unavailable")
)

// Precondition is an existence check evaluated atomically with a write.
type Precondition int

const (
	// None writes unconditionally.
	None Precondition = iota
	// MustExist requires the item to be present.
	MustExist
	// MustNotExist requires the item to be absent.
	MustNotExist
)

func (p Precondition) String() string {
	switch p {
	case None:
		return "none"
	case MustExist:
		return "must-exist"
	case MustNotExist:
		return "must-not-exist"
	default:
		return fmt.Sprintf("precondition(%d)", int(p))
	}
}

// Key addresses a single item.
type Key struct {
	Partition string
	Sort      string
}

// Schema describes a table's key layout.
type Schema struct {
	TableName    string
	PartitionKey string
	SortKey      string
	// Indexes maps a secondary index name to its partition key attribute.
	Indexes map[string]string
}

func (s Schema) indexKey(index string) (string, error) {
	attr, ok := s.Indexes[index]
	if !ok {
		return "", fmt.Errorf("table %s has no index %q", s.TableName, index)
	}
	return attr, nil
}

// Filter is an equality predicate applied to query results. The zero Filter
// matches everything.
type Filter struct {
	Attribute string
	Value     string
}

// Equals builds a Filter matching items whose attribute equals value.
func Equals(attribute, value string) Filter {
	return Filter{Attribute: attribute, Value: value}
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Attribute == ""
}

// Assignments maps attribute names to the values an Update sets.
type Assignments map[string]interface{}

// Table is the contract both the DynamoDB and the in-memory implementations
// satisfy. T is a struct with dynamodbav tags.
type Table[T any] interface {
	// Get returns the item under key, or nil when absent.
	Get(ctx context.Context, key Key) (*T, error)

	// QueryByPartition returns every item sharing a partition key.
	QueryByPartition(ctx context.Context, partition string) ([]T, error)

	// QueryByIndex returns every item whose index key equals indexKey and that
	// passes filter.
	QueryByIndex(ctx context.Context, index, indexKey string, filter Filter) ([]T, error)

	// Put writes item. MustNotExist fails with ErrPreconditionFailed when
	// the key is taken.
	Put(ctx context.Context, item T, cond Precondition) error

	// Update sets attributes on the item under key and returns the item as
	// stored afterwards. MustExist fails with ErrNotFound when absent.
	Update(ctx context.Context, key Key, set Assignments, cond Precondition) (*T, error)

	// Delete removes the item under key. MustExist fails with ErrNotFound
	// when absent.
	Delete(ctx context.Context, key Key, cond Precondition) error
}

func unavailable(op, table string, err error) error {
	return fmt.Errorf("%w: %s on %s: %w", ErrUnavailable, op, table, err)
}
