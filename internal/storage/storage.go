// Package storage defines C7, the storage gateway interface the
// configuration store and scheduler depend on (spec.md 4.7, 6). The
// interface split between Storage and Transaction follows the teacher's
// internal/storage package: Transaction exposes the subset of operations
// valid inside a single database transaction, used by
// update_configuration_item_bulk's all-or-nothing batch (spec.md 4.3.4)
// and by the recursive category delete.
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/edgeplane/corectl/internal/types"
)

// CategoryPatch describes sets of fields to write for one item during a
// bulk update (spec.md 4.3.4): the item's new value plus the audit
// before/after pair the caller wants recorded.
type CategoryPatch struct {
	Item     string
	OldValue string
	NewValue string
}

// Interest is one persisted category->callback subscription. Argv is the
// external program (internal/callback.RegisterExternal) that should be
// re-registered under CallbackID at boot, or nil for an interest backed by
// an in-process handler, which has no representation storage can restore.
type Interest struct {
	Category   string
	CallbackID string
	Argv       []string
}

// Transaction is the subset of Storage valid within a single atomic
// database transaction.
type Transaction interface {
	GetCategory(ctx context.Context, key string) (*types.Category, error)
	PutCategory(ctx context.Context, cat *types.Category) error
	DeleteCategory(ctx context.Context, key string) error

	SetItemValue(ctx context.Context, key, item, value string) error
	BulkSetItemValues(ctx context.Context, key string, patches []CategoryPatch) error

	AddChild(ctx context.Context, parent, child string) error
	RemoveChild(ctx context.Context, parent, child string) error
	RemoveChildrenOf(ctx context.Context, parent string) error
	RemoveEdgesTo(ctx context.Context, child string) error
	Children(ctx context.Context, parent string) ([]string, error)
}

// Storage is C7's full contract: typed DML against configuration,
// category_children, schedules, scheduled_processes and tasks.
type Storage interface {
	Transaction

	AllCategoryKeys(ctx context.Context) ([]string, error)
	AllChildKeys(ctx context.Context) ([]string, error)

	PutScheduledProcess(ctx context.Context, p types.ScheduledProcess) error
	GetScheduledProcess(ctx context.Context, name string) (*types.ScheduledProcess, error)
	AllScheduledProcesses(ctx context.Context) ([]types.ScheduledProcess, error)

	PutSchedule(ctx context.Context, s types.Schedule) error
	AllSchedules(ctx context.Context) ([]types.Schedule, error)

	InsertTask(ctx context.Context, t types.Task) error
	CompleteTask(ctx context.Context, id string, exitCode int, end time.Time, reason string) error
	AllTasks(ctx context.Context) ([]types.Task, error)

	PutInterest(ctx context.Context, category, callbackID string, argv []string) error
	RemoveInterest(ctx context.Context, category, callbackID string) error
	AllInterests(ctx context.Context) ([]Interest, error)

	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error

	Close() error
	Path() string
	UnderlyingDB() *sql.DB
}
