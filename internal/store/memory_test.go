package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTable_PutAndGet(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable[testItem](testSchema)

	item := testItem{Owner: "u1", ID: "n1", Category: "c1", Title: "hello"}
	require.NoError(t, table.Put(ctx, item, None))

	got, err := table.Get(ctx, Key{Partition: "u1", Sort: "n1"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, item, *got)

	missing, err := table.Get(ctx, Key{Partition: "u2", Sort: "n1"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryTable_PutPreconditions(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable[testItem](testSchema)
	item := testItem{Owner: "u1", ID: "n1"}

	require.NoError(t, table.Put(ctx, item, MustNotExist))

	err := table.Put(ctx, item, MustNotExist)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	err = table.Put(ctx, testItem{Owner: "u1", ID: "n2"}, MustExist)
	assert.True(t, errors.Is(err, ErrPreconditionFailed))

	require.NoError(t, table.Put(ctx, item, MustExist))
	assert.Equal(t, 1, table.Len())
}

func TestMemoryTable_PutRequiresKey(t *testing.T) {
	table := NewMemoryTable[testItem](testSchema)
	err := table.Put(context.Background(), testItem{Owner: "u1"}, None)
	assert.Error(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestMemoryTable_QueryByPartitionIsScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable[testItem](testSchema)
	for _, it := range []testItem{
		{Owner: "u1", ID: "b"},
		{Owner: "u2", ID: "a"},
		{Owner: "u1", ID: "a"},
	} {
		require.NoError(t, table.Put(ctx, it, None))
	}

	items, err := table.QueryByPartition(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)

	empty, err := table.QueryByPartition(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryTable_QueryByIndexAppliesFilter(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable[testItem](testSchema)
	for _, it := range []testItem{
		{Owner: "u1", ID: "n1", Category: "c1"},
		{Owner: "u2", ID: "n2", Category: "c1"},
		{Owner: "u1", ID: "n3", Category: "c2"},
	} {
		require.NoError(t, table.Put(ctx, it, None))
	}

	all, err := table.QueryByIndex(ctx, "categoryId-index", "c1", Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	owned, err := table.QueryByIndex(ctx, "categoryId-index", "c1", Equals("userId", "u1"))
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "n1", owned[0].ID)

	_, err = table.QueryByIndex(ctx, "missing-index", "c1", Filter{})
	assert.Error(t, err)
}

func TestMemoryTable_Update(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable[testItem](testSchema)
	key := Key{Partition: "u1", Sort: "n1"}

	_, err := table.Update(ctx, key, Assignments{"title": "x"}, MustExist)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 0, table.Len())

	require.NoError(t, table.Put(ctx, testItem{Owner: "u1", ID: "n1", Category: "c1", Title: "old"}, None))

	updated, err := table.Update(ctx, key, Assignments{"title": "new"}, MustExist)
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, "c1", updated.Category)

	_, err = table.Update(ctx, key, Assignments{}, MustExist)
	assert.Error(t, err)
}

func TestMemoryTable_UpdateWithoutPreconditionCreates(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable[testItem](testSchema)

	got, err := table.Update(ctx, Key{Partition: "u1", Sort: "n9"}, Assignments{"title": "t"}, None)
	require.NoError(t, err)
	assert.Equal(t, testItem{Owner: "u1", ID: "n9", Title: "t"}, *got)
}

func TestMemoryTable_Delete(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable[testItem](testSchema)
	key := Key{Partition: "u1", Sort: "n1"}

	err := table.Delete(ctx, key, MustExist)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, table.Delete(ctx, key, None))

	require.NoError(t, table.Put(ctx, testItem{Owner: "u1", ID: "n1"}, None))
	require.NoError(t, table.Delete(ctx, key, MustExist))
	assert.Equal(t, 0, table.Len())
}

func TestMemoryTable_InjectedErrors(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable[testItem](testSchema)
	boom := errors.New("boom")

	table.SetError("QueryByPartition", boom)
	_, err := table.QueryByPartition(ctx, "u1")
	assert.Equal(t, boom, err)

	table.SetError("QueryByPartition", nil)
	_, err = table.QueryByPartition(ctx, "u1")
	assert.NoError(t, err)

	bad := Key{Partition: "u1", Sort: "n2"}
	require.NoError(t, table.Put(ctx, testItem{Owner: "u1", ID: "n1"}, None))
	require.NoError(t, table.Put(ctx, testItem{Owner: "u1", ID: "n2"}, None))
	table.SetKeyError("Delete", bad, boom)

	assert.NoError(t, table.Delete(ctx, Key{Partition: "u1", Sort: "n1"}, MustExist))
	assert.Equal(t, boom, table.Delete(ctx, bad, MustExist))
	assert.Equal(t, 1, table.Len())
}
