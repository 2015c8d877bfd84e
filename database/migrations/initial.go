package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

func init() {
	migration.Register("20260101000000_create_users_table", table("users", &models.User{}))
	migration.Register("20260101000001_create_categories_table", table("categories", &models.Category{}))
	migration.Register("20260101000002_create_products_table", table("products", &models.Product{}))
	migration.Register("20260101000003_create_orders_table", table("orders", &models.Order{}))
	migration.Register("20260101000004_create_failed_jobs_table", table("failed_jobs", &queue.FailedJobRecord{}))
}

// createTable creates a table from its model and drops it on rollback.
type createTable struct {
	name  string
	model any
}

func table(name string, model any) *createTable {
	return &createTable{name: name, model: model}
}

func (m *createTable) Up(db *gorm.DB) error {
	return database.AutoMigrate(db, m.model)
}

func (m *createTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.name)
}
