package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/iyunix/go-soliloquy/internal/live"
)

const declaredTablesKey = "soliloquy:declared_tables"

// ErrUndeclaredWrite is returned when a statement writes to a table that the
// surrounding transaction did not declare, or writes outside any transaction.
var ErrUndeclaredWrite = errors.New("write to undeclared table")

type tableSet map[live.Table]struct{}

func newTableSet(tables []live.Table) tableSet {
	set := make(tableSet, len(tables))
	for _, t := range tables {
		set[t] = struct{}{}
	}
	return set
}

func (s tableSet) has(t live.Table) bool {
	_, ok := s[t]
	return ok
}

// registerWriteGuard installs create/update/delete callbacks that enforce the
// table declaration made by Store.Update.
func registerWriteGuard(db *gorm.DB) error {
	guard := func(tx *gorm.DB) {
		table := live.Table(tx.Statement.Table)
		value, ok := tx.Get(declaredTablesKey)
		if !ok {
			_ = tx.AddError(fmt.Errorf("%w: %s written outside a store transaction", ErrUndeclaredWrite, table))
			return
		}
		if declared, _ := value.(tableSet); !declared.has(table) {
			_ = tx.AddError(fmt.Errorf("%w: %s", ErrUndeclaredWrite, table))
		}
	}

	if err := db.Callback().Create().Before("gorm:create").Register("soliloquy:guard_create", guard); err != nil {
		return fmt.Errorf("register create guard: %w", err)
	}
	if err := db.Callback().Update().Before("gorm:update").Register("soliloquy:guard_update", guard); err != nil {
		return fmt.Errorf("register update guard: %w", err)
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("soliloquy:guard_delete", guard); err != nil {
		return fmt.Errorf("register delete guard: %w", err)
	}
	return nil
}
