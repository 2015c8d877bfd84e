package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSqlite(t *testing.T) {
	db, err := Open("sqlite", "file:database_open?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported DB_DRIVER "oracle"`)
}

type widget struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:50;not null;index"`
}

func TestAutoMigrateNeverReusesSqliteIDs(t *testing.T) {
	db, err := Open("sqlite", "file:database_autoincrement?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, AutoMigrate(db, &widget{}))
	require.NoError(t, AutoMigrate(db, &widget{}), "second run is a no-op")
	assert.True(t, db.Migrator().HasIndex(&widget{}, "Name"))

	a, b := widget{Name: "a"}, widget{Name: "b"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)
	require.NoError(t, db.Delete(&widget{}, b.ID).Error)

	c := widget{Name: "c"}
	require.NoError(t, db.Create(&c).Error)
	assert.Greater(t, c.ID, b.ID)
}
