package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AutoMigrate creates missing tables and columns for models.
//
// On sqlite a plain INTEGER PRIMARY KEY is a rowid alias, so the id of the
// newest row comes back after it is deleted. Tables with an auto-increment
// key are therefore created with AUTOINCREMENT before gorm migrates the rest.
func AutoMigrate(db *gorm.DB, models ...any) error {
	if db.Dialector.Name() == "sqlite" {
		for _, model := range models {
			if db.Migrator().HasTable(model) {
				continue
			}
			if err := createSqliteTable(db, model); err != nil {
				return err
			}
		}
	}
	return db.AutoMigrate(models...)
}

func createSqliteTable(db *gorm.DB, model any) error {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return fmt.Errorf("database: parse %T: %w", model, err)
	}
	pk := stmt.Schema.PrioritizedPrimaryField
	if pk == nil || !pk.AutoIncrement {
		return nil // gorm's own CREATE TABLE is fine
	}

	sql := "CREATE TABLE ? ("
	vars := []any{clause.Table{Name: stmt.Table}}
	for _, name := range stmt.Schema.DBNames {
		field := stmt.Schema.FieldsByDBName[name]
		if field.IgnoreMigration {
			continue
		}
		colType := db.Migrator().FullDataTypeOf(field)
		if field == pk {
			colType = clause.Expr{SQL: "integer PRIMARY KEY AUTOINCREMENT"}
		}
		sql += "? ?,"
		vars = append(vars, clause.Column{Name: name}, colType)
	}
	sql = sql[:len(sql)-1] + ")"

	if err := db.Exec(sql, vars...).Error; err != nil {
		return fmt.Errorf("database: create table %s: %w", stmt.Table, err)
	}
	return nil
}
