package category

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeplane/corectl/internal/audit"
	"github.com/edgeplane/corectl/internal/cache"
	"github.com/edgeplane/corectl/internal/callback"
	"github.com/edgeplane/corectl/internal/corerr"
	"github.com/edgeplane/corectl/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(context.Background(), filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	auditLog, err := audit.Open(filepath.Join(dir, "audit.jsonl"))
	require.NoError(t, err)
	return New(db, cache.New(), auditLog, callback.New())
}

func TestCreateCategoryFirstTimeFillsValueFromDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"port": {"description": "listen port", "default": "8080", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "general settings", value, false, ""))

	item, err := s.GetCategoryItem(ctx, "General", "port")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "8080", item.Value)
}

func TestCreateCategoryRejectsUnrecognizedEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"port": {"description": "x", "default": "1", "type": "integer", "bogus": "x"},
	}
	err := s.CreateCategory(ctx, "General", "", value, false, "")
	assert.True(t, corerr.Is(err, corerr.ErrValidation))
}

func TestCreateCategoryRejectsSuppliedValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"port": {"description": "x", "default": "1", "type": "integer", "value": "2"},
	}
	err := s.CreateCategory(ctx, "General", "", value, false, "")
	assert.True(t, corerr.Is(err, corerr.ErrValidation))
}

func TestCreateCategoryMergePreservesStoredValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"port": {"description": "listen port", "default": "8080", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "", value, false, ""))
	require.NoError(t, s.SetCategoryItemValueEntry(ctx, "General", "port", "9090"))

	// Recreate with a new default and description; stored value should survive.
	value2 := map[string]RawItem{
		"port": {"description": "listen port v2", "default": "8081", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "", value2, false, ""))

	item, err := s.GetCategoryItem(ctx, "General", "port")
	require.NoError(t, err)
	assert.Equal(t, "9090", item.Value)
	assert.Equal(t, "8081", item.Default)
}

func TestCreateCategoryMergeDropsDeprecatedTransition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"old": {"description": "x", "default": "1", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "", value, false, ""))

	value2 := map[string]RawItem{
		"old": {"description": "x", "default": "1", "type": "integer", "deprecated": "true"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "", value2, false, ""))

	item, err := s.GetCategoryItem(ctx, "General", "old")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestCreateCategoryKeepOriginalItemsInjectsDroppedEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"a": {"description": "x", "default": "1", "type": "integer"},
		"b": {"description": "x", "default": "1", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "", value, false, ""))

	onlyA := map[string]RawItem{
		"a": {"description": "x", "default": "1", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "", onlyA, true, ""))

	item, err := s.GetCategoryItem(ctx, "General", "b")
	require.NoError(t, err)
	assert.NotNil(t, item, "expected item b preserved via keep_original_items")
}

func TestSetCategoryItemValueEntryNoopWhenUnchanged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"port": {"description": "x", "default": "8080", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "", value, false, ""))
	assert.NoError(t, s.SetCategoryItemValueEntry(ctx, "General", "port", "8080"))
}

func TestSetCategoryItemValueEntryRejectsInvalidType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"port": {"description": "x", "default": "8080", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "", value, false, ""))
	err := s.SetCategoryItemValueEntry(ctx, "General", "port", "not-an-integer")
	assert.True(t, corerr.Is(err, corerr.ErrValidation))
}

func TestSetCategoryItemValueEntryUnknownItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"port": {"description": "x", "default": "8080", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "", value, false, ""))
	err := s.SetCategoryItemValueEntry(ctx, "General", "missing", "1")
	assert.True(t, corerr.Is(err, corerr.ErrNotFound))
}

func TestUpdateConfigurationItemBulkAllOrNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"a": {"description": "x", "default": "1", "type": "integer"},
		"b": {"description": "x", "default": "1", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "", value, false, ""))

	updates := []BulkItemUpdate{
		{Item: "a", NewValue: "2"},
		{Item: "b", NewValue: "not-an-integer"},
	}
	err := s.UpdateConfigurationItemBulk(ctx, "General", updates)
	assert.True(t, corerr.Is(err, corerr.ErrValidation))

	item, err := s.GetCategoryItem(ctx, "General", "a")
	require.NoError(t, err)
	assert.Equal(t, "1", item.Value, "failed bulk update must leave item a untouched")
}

func TestUpdateConfigurationItemBulkAppliesValidPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"a": {"description": "x", "default": "1", "type": "integer"},
		"b": {"description": "x", "default": "1", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(ctx, "General", "", value, false, ""))

	updates := []BulkItemUpdate{
		{Item: "a", NewValue: "2"},
		{Item: "b", NewValue: "3"},
	}
	require.NoError(t, s.UpdateConfigurationItemBulk(ctx, "General", updates))

	a, err := s.GetCategoryItem(ctx, "General", "a")
	require.NoError(t, err)
	b, err := s.GetCategoryItem(ctx, "General", "b")
	require.NoError(t, err)
	assert.Equal(t, "2", a.Value)
	assert.Equal(t, "3", b.Value)
}

func TestGetCategoryAllItemsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetCategoryAllItems(context.Background(), "Nope")
	assert.True(t, corerr.Is(err, corerr.ErrNotFound))
}

func TestEnumerationRequiresDefaultInOptions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value := map[string]RawItem{
		"mode": {"description": "x", "default": "bogus", "type": "enumeration", "options": []any{"a", "b"}},
	}
	err := s.CreateCategory(ctx, "General", "", value, false, "")
	assert.True(t, corerr.Is(err, corerr.ErrValidation))
}
