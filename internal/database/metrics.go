package database

import (
	"fmt"

	"dailybright/internal/observability"

	"gorm.io/gorm"
)

const queryTimerKey = "dailybright:query_timer"

// RegisterQueryMetrics times every create, query, update, delete, row and raw
// statement into the database latency histogram.
func RegisterQueryMetrics(db *gorm.DB) error {
	cb := db.Callback()
	type register func(name string, fn func(*gorm.DB)) error
	ops := []struct {
		name          string
		before, after register
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, op := range ops {
		operation := op.name
		if err := op.before("metrics:before_"+operation, func(tx *gorm.DB) {
			tx.InstanceSet(queryTimerKey, observability.TrackQuery(operation, tableName(tx)))
		}); err != nil {
			return fmt.Errorf("register %s timer: %w", operation, err)
		}
		if err := op.after("metrics:after_"+operation, func(tx *gorm.DB) {
			if done, ok := tx.InstanceGet(queryTimerKey); ok {
				if fn, ok := done.(func()); ok {
					fn()
				}
			}
		}); err != nil {
			return fmt.Errorf("register %s timer: %w", operation, err)
		}
	}
	return nil
}

func tableName(tx *gorm.DB) string {
	if tx.Statement != nil && tx.Statement.Table != "" {
		return tx.Statement.Table
	}
	return "unknown"
}
