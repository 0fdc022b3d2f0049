// Package category implements C3, the category store (spec.md 4.3): create
// and merge categories, read paths through the cache, per-item and bulk
// value updates, the interests/callback hook, and the parent/child tree.
//
// Grounded on the teacher's internal/storage Storage/Transaction split
// (the bulk update's all-or-nothing batch and the recursive delete go
// through RunInTransaction; everything else, create_category's read,
// merge and write included, makes separate calls straight to Storage,
// so a create_category is not isolated from concurrent writers) and on
// internal/molecules's "later overrides earlier"
// layering discipline for the create-time merge.
package category

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edgeplane/corectl/internal/audit"
	"github.com/edgeplane/corectl/internal/cache"
	"github.com/edgeplane/corectl/internal/callback"
	"github.com/edgeplane/corectl/internal/corerr"
	"github.com/edgeplane/corectl/internal/storage"
	"github.com/edgeplane/corectl/internal/types"
	"github.com/edgeplane/corectl/internal/validator"
)

// Store is C3: a category store bound to one storage backend, cache,
// audit log and callback registry.
type Store struct {
	db        storage.Storage
	cache     *cache.Cache
	audit     *audit.Log
	callbacks *callback.Registry
}

// New returns a Store over the given collaborators. Store holds no
// package-level state: one value is constructed at boot and passed to
// callers, per Design Notes 9's re-architecture of the source's
// shared-state singleton.
func New(db storage.Storage, c *cache.Cache, a *audit.Log, cb *callback.Registry) *Store {
	return &Store{db: db, cache: c, audit: a, callbacks: cb}
}

// CreateCategory implements create_category (spec.md 4.3.1).
func (s *Store) CreateCategory(ctx context.Context, name, description string, value map[string]RawItem, keepOriginalItems bool, displayName string) error {
	if name == "" {
		return corerr.Validation("category name must be a non-empty string")
	}

	prepared := make(types.Items, len(value))
	for item, raw := range value {
		built, err := validateCreateItem(item, raw)
		if err != nil {
			return err
		}
		prepared[item] = built
	}

	stored, err := s.db.GetCategory(ctx, name)
	if err != nil {
		return corerr.Storage(err)
	}

	if stored == nil {
		finalItems := stripDeprecated(prepared)
		if displayName == "" {
			displayName = name
		}
		cat := &types.Category{Key: name, Description: description, DisplayName: displayName, Value: finalItems}
		if err := s.db.PutCategory(ctx, cat); err != nil {
			return corerr.Storage(err)
		}
		s.cache.Put(name, finalItems, displayName)
		if err := s.audit.CategoryAdded(name); err != nil {
			return fmt.Errorf("audit category added: %w", err)
		}
		return s.callbacks.Notify(ctx, name)
	}

	storedValid := true
	for n, it := range stored.Value {
		if err := validateStoredItem(n, it); err != nil {
			storedValid = false
			break
		}
	}

	var merged types.Items
	if !storedValid {
		merged = stripDeprecated(prepared)
	} else {
		merged = s.merge(name, prepared, stored.Value, keepOriginalItems)
	}

	if displayName == "" {
		displayName = stored.DisplayName
		if displayName == "" {
			displayName = name
		}
	}

	if !itemsEqual(merged, stored.Value) || displayName != stored.DisplayName {
		cat := &types.Category{Key: name, Description: description, DisplayName: displayName, Value: merged}
		if err := s.db.PutCategory(ctx, cat); err != nil {
			return corerr.Storage(err)
		}
		s.cache.Put(name, merged, displayName)
		return s.callbacks.Notify(ctx, name)
	}
	return nil
}

// merge implements spec.md 4.3.1 step 5: items present in both keep the
// stored value; a prepared item transitioning to deprecated is dropped
// with a CONCH audit recording its prior stored value; a brand-new
// deprecated item (no stored counterpart) is dropped silently, with no
// audit; keepOriginalItems injects whatever is left of stored verbatim.
func (s *Store) merge(category string, prepared, stored types.Items, keepOriginalItems bool) types.Items {
	merged := make(types.Items, len(prepared))
	remaining := make(types.Items, len(stored))
	for k, v := range stored {
		remaining[k] = v
	}

	for name, item := range prepared {
		if sv, ok := stored[name]; ok {
			delete(remaining, name)
			if item.IsDeprecated() {
				_ = s.audit.ItemDeprecated(category, name, sv.Value)
				continue
			}
			item.Value = sv.Value
			merged[name] = item
			continue
		}
		if item.IsDeprecated() {
			continue
		}
		merged[name] = item
	}

	if keepOriginalItems {
		for name, item := range remaining {
			merged[name] = item
		}
	}
	return merged
}

func stripDeprecated(items types.Items) types.Items {
	out := make(types.Items, len(items))
	for name, item := range items {
		if item.IsDeprecated() {
			continue
		}
		out[name] = item
	}
	return out
}

// itemsEqual compares two Items maps by sorted-key JSON encoding (spec.md
// 4.3.1 step 7); encoding/json already emits map keys in sorted order.
func itemsEqual(a, b types.Items) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ja) == string(jb)
}

// GetCategoryAllItems implements get_category_all_items (spec.md 4.3.2).
func (s *Store) GetCategoryAllItems(ctx context.Context, name string) (types.Items, error) {
	if s.cache.Contains(name) {
		items, _, _ := s.cache.Get(name)
		return items, nil
	}
	cat, err := s.db.GetCategory(ctx, name)
	if err != nil {
		return nil, corerr.Storage(err)
	}
	if cat == nil {
		return nil, corerr.NotFound("category %q not found", name)
	}
	s.cache.Put(name, cat.Value, cat.DisplayName)
	return cat.Value, nil
}

// GetCategoryItem implements get_category_item (spec.md 4.3.2).
func (s *Store) GetCategoryItem(ctx context.Context, name, item string) (*types.Item, error) {
	if s.cache.Contains(name) {
		items, _, _ := s.cache.Get(name)
		if it, ok := items[item]; ok {
			return &it, nil
		}
		return nil, nil
	}
	cat, err := s.db.GetCategory(ctx, name)
	if err != nil {
		return nil, corerr.Storage(err)
	}
	if cat == nil {
		return nil, corerr.NotFound("category %q not found", name)
	}
	it, ok := cat.Value[item]
	if !ok {
		s.cache.Put(name, cat.Value, cat.DisplayName)
		return nil, nil
	}
	s.cache.Put(name, cat.Value, cat.DisplayName)
	return &it, nil
}

// GetItemValueEntry implements get_item_value_entry (spec.md 4.3.2): the
// value sub-entry of one item, read directly from storage.
func (s *Store) GetItemValueEntry(ctx context.Context, name, item string) (string, error) {
	cat, err := s.db.GetCategory(ctx, name)
	if err != nil {
		return "", corerr.Storage(err)
	}
	if cat == nil {
		return "", corerr.NotFound("category %q not found", name)
	}
	it, ok := cat.Value[item]
	if !ok {
		return "", corerr.NotFound("item %q not found in category %q", item, name)
	}
	return it.Value, nil
}

// SetCategoryItemValueEntry implements set_category_item_value_entry
// (spec.md 4.3.3).
func (s *Store) SetCategoryItemValueEntry(ctx context.Context, name, item, newValue string) error {
	var current types.Item
	if s.cache.Contains(name) {
		items, _, _ := s.cache.Get(name)
		it, ok := items[item]
		if !ok {
			return corerr.NotFound("item %q not found in category %q", item, name)
		}
		current = it
	} else {
		cat, err := s.db.GetCategory(ctx, name)
		if err != nil {
			return corerr.Storage(err)
		}
		if cat == nil {
			return corerr.NotFound("category %q not found", name)
		}
		it, ok := cat.Value[item]
		if !ok {
			return corerr.NotFound("item %q not found in category %q", item, name)
		}
		current = it
		s.cache.Put(name, cat.Value, cat.DisplayName)
	}

	if newValue == current.Value {
		return nil
	}

	if current.Type == types.TypeEnumeration && newValue == "" {
		return corerr.Validation("new value must not be empty")
	}
	if !itemTypeValid(current, newValue) {
		return corerr.Validation("new value %q invalid for type %s", newValue, current.Type)
	}

	cleaned := validator.Clean(current.Type, newValue)
	old := current.Value
	if err := s.db.SetItemValue(ctx, name, item, cleaned); err != nil {
		return corerr.Storage(err)
	}
	if err := s.audit.ItemChanged(name, item, old, cleaned); err != nil {
		return fmt.Errorf("audit item changed: %w", err)
	}

	cat, err := s.db.GetCategory(ctx, name)
	if err != nil {
		return corerr.Storage(err)
	}
	if cat != nil {
		s.cache.Put(name, cat.Value, cat.DisplayName)
	}
	return s.callbacks.Notify(ctx, name)
}

// BulkItemUpdate describes one item's requested new value for
// UpdateConfigurationItemBulk.
type BulkItemUpdate struct {
	Item     string
	NewValue string
}

// UpdateConfigurationItemBulk implements update_configuration_item_bulk
// (spec.md 4.3.4).
func (s *Store) UpdateConfigurationItemBulk(ctx context.Context, name string, updates []BulkItemUpdate) error {
	cat, err := s.db.GetCategory(ctx, name)
	if err != nil {
		return corerr.Storage(err)
	}
	if cat == nil {
		return corerr.NotFound("category %q not found", name)
	}

	var patches []storage.CategoryPatch
	auditItems := make(map[string]any, len(updates))
	for _, u := range updates {
		current, ok := cat.Value[u.Item]
		if !ok {
			return corerr.NotFound("item %q not found in category %q", u.Item, name)
		}
		if u.NewValue == current.Value {
			continue
		}
		if current.Type == types.TypeEnumeration && u.NewValue == "" {
			return corerr.Validation("item %q: new value must not be empty", u.Item)
		}
		if !itemTypeValid(current, u.NewValue) {
			return corerr.Validation("item %q: new value %q invalid for type %s", u.Item, u.NewValue, current.Type)
		}
		cleaned := validator.Clean(current.Type, u.NewValue)
		patches = append(patches, storage.CategoryPatch{Item: u.Item, OldValue: current.Value, NewValue: cleaned})
		auditItems[u.Item] = map[string]string{"oldValue": current.Value, "newValue": cleaned}
	}
	if len(patches) == 0 {
		return nil
	}

	if err := s.db.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return tx.BulkSetItemValues(ctx, name, patches)
	}); err != nil {
		return corerr.Storage(err)
	}

	if err := s.audit.ItemsChanged(name, auditItems); err != nil {
		return fmt.Errorf("audit items changed: %w", err)
	}

	refreshed, err := s.db.GetCategory(ctx, name)
	if err != nil {
		return corerr.Storage(err)
	}
	if refreshed != nil {
		s.cache.Put(name, refreshed.Value, refreshed.DisplayName)
	}
	return s.callbacks.Notify(ctx, name)
}
