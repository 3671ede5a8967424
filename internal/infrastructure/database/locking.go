package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate adds a row lock (SELECT ... FOR UPDATE) to the next query on tx.
// Quota and uniqueness checks lock the owning organisation row first so
// concurrent check-then-insert sequences on the same organisation serialize.
// SQLite ignores the clause; its writers are already serialized.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
