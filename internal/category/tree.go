package category

import (
	"context"
	"fmt"

	"github.com/edgeplane/corectl/internal/corerr"
	"github.com/edgeplane/corectl/internal/storage"
)

// Reserved is R, spec.md 3's reserved category set: recursive delete
// refuses to touch any of these, whether passed directly or reached as a
// descendant.
var Reserved = map[string]bool{
	"South": true, "North": true, "General": true, "Advanced": true,
	"Utilities": true, "rest_api": true, "Security": true, "service": true,
	"SCHEDULER": true, "SMNTR": true, "PURGE_READ": true, "Notifications": true,
}

// Node is one entry of the forest tree() builds.
type Node struct {
	Key      string
	Children []*Node
}

// Children implements children(parent) (spec.md 4.3.6): direct children
// only, erroring if parent does not exist.
func (s *Store) Children(ctx context.Context, parent string) ([]string, error) {
	cat, err := s.db.GetCategory(ctx, parent)
	if err != nil {
		return nil, corerr.Storage(err)
	}
	if cat == nil {
		return nil, corerr.NotFound("category %q not found", parent)
	}
	kids, err := s.db.Children(ctx, parent)
	if err != nil {
		return nil, corerr.Storage(err)
	}
	return kids, nil
}

// Roots and Leaves both partition the full category-key set against
// category_children.child (spec.md 4.3.6): a root never appears as a
// child, a leaf appears as the child of at least one edge. Every
// category is in exactly one of the two.
func (s *Store) Roots(ctx context.Context) ([]string, error) {
	all, childKeys, err := s.allAndChildren(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range all {
		if !childKeys[k] {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *Store) Leaves(ctx context.Context) ([]string, error) {
	all, childKeys, err := s.allAndChildren(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range all {
		if childKeys[k] {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *Store) allAndChildren(ctx context.Context) ([]string, map[string]bool, error) {
	all, err := s.db.AllCategoryKeys(ctx)
	if err != nil {
		return nil, nil, corerr.Storage(err)
	}
	childKeysList, err := s.db.AllChildKeys(ctx)
	if err != nil {
		return nil, nil, corerr.Storage(err)
	}
	childKeys := make(map[string]bool, len(childKeysList))
	for _, k := range childKeysList {
		childKeys[k] = true
	}
	return all, childKeys, nil
}

// Tree implements tree(root, children) (spec.md 4.3.6): builds the forest
// rooted at the roots partition when root is true, at the leaves
// partition otherwise, recursively populating Children when children is
// true (a single flat level of Node values with no Children populated
// when it is false).
func (s *Store) Tree(ctx context.Context, root, children bool) ([]*Node, error) {
	var starts []string
	var err error
	if root {
		starts, err = s.Roots(ctx)
	} else {
		starts, err = s.Leaves(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*Node, 0, len(starts))
	for _, k := range starts {
		n := &Node{Key: k}
		if children {
			if err := s.populate(ctx, n); err != nil {
				return nil, err
			}
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) populate(ctx context.Context, n *Node) error {
	kids, err := s.db.Children(ctx, n.Key)
	if err != nil {
		return corerr.Storage(err)
	}
	for _, k := range kids {
		child := &Node{Key: k}
		if err := s.populate(ctx, child); err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}
	return nil
}

// CreateChildCategory implements create_child_category (spec.md 4.3.6):
// every key named, parent included, must already exist; edges are
// inserted for children not already linked; acyclicity is enforced at
// insert time by refusing any child that already has parent among its
// own descendants (resolving the cycle-risk open question noted against
// the source's unguarded parent/child edge table).
func (s *Store) CreateChildCategory(ctx context.Context, parent string, childKeys []string) ([]string, error) {
	if _, err := s.mustExist(ctx, parent); err != nil {
		return nil, err
	}
	for _, c := range childKeys {
		if _, err := s.mustExist(ctx, c); err != nil {
			return nil, err
		}
		descendants, err := s.descendants(ctx, c)
		if err != nil {
			return nil, err
		}
		if descendants[parent] || c == parent {
			return nil, corerr.Validation("create_child_category: %q -> %q would introduce a cycle", parent, c)
		}
	}
	for _, c := range childKeys {
		if err := s.db.AddChild(ctx, parent, c); err != nil {
			return nil, corerr.Storage(err)
		}
	}
	return s.Children(ctx, parent)
}

// DeleteChildCategory implements delete_child_category (spec.md 4.3.6).
func (s *Store) DeleteChildCategory(ctx context.Context, parent, child string) ([]string, error) {
	if err := s.db.RemoveChild(ctx, parent, child); err != nil {
		return nil, corerr.Storage(err)
	}
	return s.Children(ctx, parent)
}

// DeleteParentCategory implements delete_parent_category (spec.md 4.3.6):
// removes every edge where parent is the parent.
func (s *Store) DeleteParentCategory(ctx context.Context, parent string) error {
	if err := s.db.RemoveChildrenOf(ctx, parent); err != nil {
		return corerr.Storage(err)
	}
	return nil
}

// DeleteCategoryAndChildrenRecursively implements
// delete_category_and_children_recursively (spec.md 4.3.6): DFS the
// subtree rooted at name, refuse if name or any descendant is in
// Reserved, else delete post-order.
func (s *Store) DeleteCategoryAndChildrenRecursively(ctx context.Context, name string) error {
	if Reserved[name] {
		return corerr.Reserved("category %q is reserved", name)
	}
	descendants, err := s.descendants(ctx, name)
	if err != nil {
		return err
	}
	for d := range descendants {
		if Reserved[d] {
			return corerr.Reserved("category %q has reserved descendant %q", name, d)
		}
	}

	order, err := s.postOrder(ctx, name)
	if err != nil {
		return err
	}
	return s.db.RunInTransaction(ctx, func(tx storage.Transaction) error {
		for _, node := range order {
			if err := tx.RemoveEdgesTo(ctx, node); err != nil {
				return err
			}
			if err := tx.DeleteCategory(ctx, node); err != nil {
				return err
			}
			s.cache.Remove(node)
			if err := s.audit.CategoryDeleted(node); err != nil {
				return fmt.Errorf("audit category deleted: %w", err)
			}
		}
		return nil
	})
}

// mustExist returns corerr.NotFound if key has no persisted category row.
func (s *Store) mustExist(ctx context.Context, key string) (bool, error) {
	cat, err := s.db.GetCategory(ctx, key)
	if err != nil {
		return false, corerr.Storage(err)
	}
	if cat == nil {
		return false, corerr.NotFound("category %q not found", key)
	}
	return true, nil
}

// descendants returns the set of keys reachable from name via child
// edges, not including name itself.
func (s *Store) descendants(ctx context.Context, name string) (map[string]bool, error) {
	seen := map[string]bool{}
	var walk func(string) error
	walk = func(k string) error {
		kids, err := s.db.Children(ctx, k)
		if err != nil {
			return corerr.Storage(err)
		}
		for _, c := range kids {
			if seen[c] {
				continue
			}
			seen[c] = true
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(name); err != nil {
		return nil, err
	}
	return seen, nil
}

// postOrder returns name and its descendants ordered children-before-
// parents, the order delete_category_and_children_recursively requires.
func (s *Store) postOrder(ctx context.Context, name string) ([]string, error) {
	var order []string
	visited := map[string]bool{}
	var walk func(string) error
	walk = func(k string) error {
		if visited[k] {
			return nil
		}
		visited[k] = true
		kids, err := s.db.Children(ctx, k)
		if err != nil {
			return corerr.Storage(err)
		}
		for _, c := range kids {
			if err := walk(c); err != nil {
				return err
			}
		}
		order = append(order, k)
		return nil
	}
	if err := walk(name); err != nil {
		return nil, err
	}
	return order, nil
}
