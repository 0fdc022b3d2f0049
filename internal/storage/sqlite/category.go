package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edgeplane/corectl/internal/storage"
	"github.com/edgeplane/corectl/internal/types"
)

func (s *SQLiteStorage) q() querier { return s.db }

func (s *SQLiteStorage) GetCategory(ctx context.Context, key string) (*types.Category, error) {
	return getCategory(ctx, s.q(), key)
}
func (s *SQLiteStorage) PutCategory(ctx context.Context, cat *types.Category) error {
	return putCategory(ctx, s.q(), cat)
}
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, key string) error {
	return deleteCategory(ctx, s.q(), key)
}
func (s *SQLiteStorage) SetItemValue(ctx context.Context, key, item, value string) error {
	return setItemValue(ctx, s.q(), key, item, value)
}
func (s *SQLiteStorage) BulkSetItemValues(ctx context.Context, key string, patches []storage.CategoryPatch) error {
	return bulkSetItemValues(ctx, s.q(), key, patches)
}
func (s *SQLiteStorage) AddChild(ctx context.Context, parent, child string) error {
	return addChild(ctx, s.q(), parent, child)
}
func (s *SQLiteStorage) RemoveChild(ctx context.Context, parent, child string) error {
	return removeChild(ctx, s.q(), parent, child)
}
func (s *SQLiteStorage) RemoveChildrenOf(ctx context.Context, parent string) error {
	return removeChildrenOf(ctx, s.q(), parent)
}
func (s *SQLiteStorage) RemoveEdgesTo(ctx context.Context, child string) error {
	return removeEdgesTo(ctx, s.q(), child)
}
func (s *SQLiteStorage) Children(ctx context.Context, parent string) ([]string, error) {
	return children(ctx, s.q(), parent)
}
func (s *SQLiteStorage) AllCategoryKeys(ctx context.Context) ([]string, error) {
	return allCategoryKeys(ctx, s.q())
}
func (s *SQLiteStorage) AllChildKeys(ctx context.Context) ([]string, error) {
	return allChildKeys(ctx, s.q())
}

func (t *sqliteTx) GetCategory(ctx context.Context, key string) (*types.Category, error) {
	return getCategory(ctx, t.q(), key)
}
func (t *sqliteTx) PutCategory(ctx context.Context, cat *types.Category) error {
	return putCategory(ctx, t.q(), cat)
}
func (t *sqliteTx) DeleteCategory(ctx context.Context, key string) error {
	return deleteCategory(ctx, t.q(), key)
}
func (t *sqliteTx) SetItemValue(ctx context.Context, key, item, value string) error {
	return setItemValue(ctx, t.q(), key, item, value)
}
func (t *sqliteTx) BulkSetItemValues(ctx context.Context, key string, patches []storage.CategoryPatch) error {
	return bulkSetItemValues(ctx, t.q(), key, patches)
}
func (t *sqliteTx) AddChild(ctx context.Context, parent, child string) error {
	return addChild(ctx, t.q(), parent, child)
}
func (t *sqliteTx) RemoveChild(ctx context.Context, parent, child string) error {
	return removeChild(ctx, t.q(), parent, child)
}
func (t *sqliteTx) RemoveChildrenOf(ctx context.Context, parent string) error {
	return removeChildrenOf(ctx, t.q(), parent)
}
func (t *sqliteTx) RemoveEdgesTo(ctx context.Context, child string) error {
	return removeEdgesTo(ctx, t.q(), child)
}
func (t *sqliteTx) Children(ctx context.Context, parent string) ([]string, error) {
	return children(ctx, t.q(), parent)
}

// getCategory reads one row and unmarshals its JSON value into Items.
func getCategory(ctx context.Context, q querier, key string) (*types.Category, error) {
	row := q.QueryRowContext(ctx, `SELECT key, description, value, display_name, ts FROM configuration WHERE key = ?`, key)
	var cat types.Category
	var raw string
	var ts time.Time
	if err := row.Scan(&cat.Key, &cat.Description, &raw, &cat.DisplayName, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category %s: %w", key, err)
	}
	cat.Timestamp = ts
	items := types.Items{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("decode category %s value: %w", key, err)
		}
	}
	cat.Value = items
	return &cat, nil
}

func putCategory(ctx context.Context, q querier, cat *types.Category) error {
	raw, err := json.Marshal(cat.Value)
	if err != nil {
		return fmt.Errorf("encode category %s value: %w", cat.Key, err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO configuration (key, description, value, display_name, ts)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			description = excluded.description,
			value = excluded.value,
			display_name = excluded.display_name,
			ts = CURRENT_TIMESTAMP
	`, cat.Key, cat.Description, string(raw), cat.DisplayName)
	if err != nil {
		return fmt.Errorf("put category %s: %w", cat.Key, err)
	}
	return nil
}

func deleteCategory(ctx context.Context, q querier, key string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM configuration WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete category %s: %w", key, err)
	}
	return nil
}

// setItemValue performs an atomic single-field JSON-path update using
// SQLite's json_set, matching spec.md 4.7's json_update contract.
func setItemValue(ctx context.Context, q querier, key, item, value string) error {
	path := fmt.Sprintf("$.%s.value", item)
	res, err := q.ExecContext(ctx, `
		UPDATE configuration SET value = json_set(value, ?, ?), ts = CURRENT_TIMESTAMP WHERE key = ?
	`, path, value, key)
	if err != nil {
		return fmt.Errorf("set item %s.%s: %w", key, item, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set item %s.%s: %w", key, item, err)
	}
	if n == 0 {
		return fmt.Errorf("set item %s.%s: category not found", key, item)
	}
	return nil
}

// bulkSetItemValues applies every patch as a single atomic statement
// chain (spec.md 4.3.4's "all-or-nothing at the storage call boundary"):
// each json_set call composes on the previous one's result.
func bulkSetItemValues(ctx context.Context, q querier, key string, patches []storage.CategoryPatch) error {
	if len(patches) == 0 {
		return nil
	}
	expr := "value"
	args := make([]any, 0, len(patches)*2+1)
	for _, p := range patches {
		expr = fmt.Sprintf("json_set(%s, ?, ?)", expr)
		args = append(args, fmt.Sprintf("$.%s.value", p.Item), p.NewValue)
	}
	args = append(args, key)
	stmt := fmt.Sprintf(`UPDATE configuration SET value = %s, ts = CURRENT_TIMESTAMP WHERE key = ?`, expr)
	res, err := q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("bulk set items on %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bulk set items on %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("bulk set items on %s: category not found", key)
	}
	return nil
}

func addChild(ctx context.Context, q querier, parent, child string) error {
	_, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO category_children (parent, child) VALUES (?, ?)`, parent, child)
	if err != nil {
		return fmt.Errorf("add child %s->%s: %w", parent, child, err)
	}
	return nil
}

func removeChild(ctx context.Context, q querier, parent, child string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM category_children WHERE parent = ? AND child = ?`, parent, child)
	if err != nil {
		return fmt.Errorf("remove child %s->%s: %w", parent, child, err)
	}
	return nil
}

func removeChildrenOf(ctx context.Context, q querier, parent string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM category_children WHERE parent = ?`, parent)
	if err != nil {
		return fmt.Errorf("remove children of %s: %w", parent, err)
	}
	return nil
}

func removeEdgesTo(ctx context.Context, q querier, child string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM category_children WHERE child = ?`, child)
	if err != nil {
		return fmt.Errorf("remove edges to %s: %w", child, err)
	}
	return nil
}

func children(ctx context.Context, q querier, parent string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT child FROM category_children WHERE parent = ? ORDER BY child`, parent)
	if err != nil {
		return nil, fmt.Errorf("children of %s: %w", parent, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func allCategoryKeys(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT key FROM configuration ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("all category keys: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func allChildKeys(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT DISTINCT child FROM category_children`)
	if err != nil {
		return nil, fmt.Errorf("all child keys: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
