package category

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeplane/corectl/internal/corerr"
)

func mustCreate(t *testing.T, s *Store, name string) {
	t.Helper()
	value := map[string]RawItem{
		"x": {"description": "x", "default": "1", "type": "integer"},
	}
	require.NoError(t, s.CreateCategory(context.Background(), name, "", value, false, ""))
}

func TestCreateChildCategoryLinksParentAndChild(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "Parent")
	mustCreate(t, s, "Child")

	kids, err := s.CreateChildCategory(ctx, "Parent", []string{"Child"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Child"}, kids)
}

func TestCreateChildCategoryRejectsMissingKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "Parent")

	_, err := s.CreateChildCategory(ctx, "Parent", []string{"Ghost"})
	assert.True(t, corerr.Is(err, corerr.ErrNotFound))
}

func TestCreateChildCategoryRejectsCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "A")
	mustCreate(t, s, "B")
	mustCreate(t, s, "C")

	_, err := s.CreateChildCategory(ctx, "A", []string{"B"})
	require.NoError(t, err)
	_, err = s.CreateChildCategory(ctx, "B", []string{"C"})
	require.NoError(t, err)

	_, err = s.CreateChildCategory(ctx, "C", []string{"A"})
	assert.True(t, corerr.Is(err, corerr.ErrValidation), "expected cycle to be rejected as a validation error")
}

func TestCreateChildCategoryRejectsSelfLoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "A")

	_, err := s.CreateChildCategory(ctx, "A", []string{"A"})
	assert.True(t, corerr.Is(err, corerr.ErrValidation))
}

func TestRootsAndLeavesPartitionTheForest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "Parent")
	mustCreate(t, s, "Child")
	mustCreate(t, s, "Lonely")

	_, err := s.CreateChildCategory(ctx, "Parent", []string{"Child"})
	require.NoError(t, err)

	roots, err := s.Roots(ctx)
	require.NoError(t, err)
	assert.Contains(t, roots, "Parent")
	assert.Contains(t, roots, "Lonely")
	assert.NotContains(t, roots, "Child")

	leaves, err := s.Leaves(ctx)
	require.NoError(t, err)
	assert.Contains(t, leaves, "Child")
	assert.NotContains(t, leaves, "Lonely")
	assert.NotContains(t, leaves, "Parent")
}

func TestTreeBuildsNestedChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "Parent")
	mustCreate(t, s, "Child")
	mustCreate(t, s, "Grandchild")

	_, err := s.CreateChildCategory(ctx, "Parent", []string{"Child"})
	require.NoError(t, err)
	_, err = s.CreateChildCategory(ctx, "Child", []string{"Grandchild"})
	require.NoError(t, err)

	nodes, err := s.Tree(ctx, true, true)
	require.NoError(t, err)

	var parent *Node
	for _, n := range nodes {
		if n.Key == "Parent" {
			parent = n
		}
	}
	require.NotNil(t, parent, "expected Parent among roots")
	require.Len(t, parent.Children, 1)
	assert.Equal(t, "Child", parent.Children[0].Key)
	require.Len(t, parent.Children[0].Children, 1)
	assert.Equal(t, "Grandchild", parent.Children[0].Children[0].Key)
}

func TestDeleteChildCategoryUnlinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "Parent")
	mustCreate(t, s, "Child")
	_, err := s.CreateChildCategory(ctx, "Parent", []string{"Child"})
	require.NoError(t, err)

	kids, err := s.DeleteChildCategory(ctx, "Parent", "Child")
	require.NoError(t, err)
	assert.Empty(t, kids)
}

func TestDeleteCategoryAndChildrenRecursivelyRefusesReserved(t *testing.T) {
	s := newTestStore(t)
	err := s.DeleteCategoryAndChildrenRecursively(context.Background(), "General")
	assert.True(t, corerr.Is(err, corerr.ErrReserved))
}

func TestDeleteCategoryAndChildrenRecursivelyRefusesReservedDescendant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "Parent")
	_, err := s.CreateChildCategory(ctx, "Parent", []string{"General"})
	require.NoError(t, err)

	err = s.DeleteCategoryAndChildrenRecursively(ctx, "Parent")
	assert.True(t, corerr.Is(err, corerr.ErrReserved))
}

func TestDeleteCategoryAndChildrenRecursivelyDeletesSubtree(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "Parent")
	mustCreate(t, s, "Child")
	_, err := s.CreateChildCategory(ctx, "Parent", []string{"Child"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategoryAndChildrenRecursively(ctx, "Parent"))

	_, err = s.GetCategoryAllItems(ctx, "Parent")
	assert.True(t, corerr.Is(err, corerr.ErrNotFound))
	_, err = s.GetCategoryAllItems(ctx, "Child")
	assert.True(t, corerr.Is(err, corerr.ErrNotFound))
}
