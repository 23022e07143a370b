package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	ts := time.Date(2024, 3, 9, 7, 4, 5, 123456789, loc)

	assert.Equal(t, "2024-03-09T12:04:05.123Z", Timestamp(ts))
}

func TestNotePatch(t *testing.T) {
	assert.True(t, NotePatch{}.IsEmpty())
	assert.True(t, NotePatch{Title: ptr(""), Content: ptr("")}.IsEmpty())

	patch := NotePatch{CategoryID: ptr("X"), Title: ptr("")}
	assert.False(t, patch.IsEmpty())
	assert.Equal(t, map[string]string{AttrCategoryID: "X"}, patch.Fields())

	full := NotePatch{Title: ptr("t"), Content: ptr("c"), CategoryID: ptr("k")}
	assert.Len(t, full.Fields(), 3)
}

func TestCategoryPatch(t *testing.T) {
	assert.True(t, CategoryPatch{}.IsEmpty())
	assert.Equal(t, map[string]string{AttrName: "Work"}, CategoryPatch{Name: ptr("Work")}.Fields())
}
