package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/edgeplane/corectl/internal/storage/sqlite/migrations"
)

// migration is a single named, idempotent schema step.
type migration struct {
	Name string
	Func func(*sql.DB) error
}

// migrationsList is the ordered list of all migrations run at database
// initialization, following the teacher's {"name", migrations.MigrateXxx}
// list-of-structs pattern.
var migrationsList = []migration{
	{"base_schema", migrations.MigrateBaseSchema},
	{"interests_table", migrations.MigrateInterestsTable},
}

func runMigrations(db *sql.DB) error {
	for _, m := range migrationsList {
		if err := m.Func(db); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
	}
	return nil
}
