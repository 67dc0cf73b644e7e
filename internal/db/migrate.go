package db

import (
	"fmt"

	"gorm.io/gorm"

	"minitasks/internal/model"
)

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return enforceExactEmail(db)
}

// Drop removes every table Migrate creates.
func Drop(db *gorm.DB) error {
	for _, table := range []interface{}{&model.Task{}, &model.User{}} {
		if err := db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}

// exactEmailDDL returns the statement that makes users.email compare
// byte-for-byte on dialect, or "" when the dialect already does.
func exactEmailDDL(dialect string) string {
	switch dialect {
	case "mysql":
		// Default MySQL collations fold case, which would merge A@x.com and a@x.com.
		return "ALTER TABLE users MODIFY email varchar(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL"
	default:
		return ""
	}
}

func enforceExactEmail(db *gorm.DB) error {
	ddl := exactEmailDDL(db.Dialector.Name())
	if ddl == "" {
		return nil
	}
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("set email collation: %w", err)
	}
	return nil
}
