package database

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMemory(t *testing.T) *gorm.DB {
	dsn := SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	db, err := Open(sqlite.Open(dsn), logger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, RunMigrations(db))
	return db
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "foodgram.db?_foreign_keys=on", SQLiteDSN("foodgram.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", SQLiteDSN("file:x?mode=memory"))
}

func TestMigrationsEnforceUniqueness(t *testing.T) {
	db := openMemory(t)

	require.NoError(t, db.Create(&models.Ingredient{Name: "flour", MeasurementUnit: "g"}).Error)
	require.NoError(t, db.Create(&models.Ingredient{Name: "flour", MeasurementUnit: "ml"}).Error)

	err := db.Create(&models.Ingredient{Name: "flour", MeasurementUnit: "g"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestMigrationsCascadeUserDeletion(t *testing.T) {
	db := openMemory(t)

	author := models.User{Email: "a@example.com", Username: "author", PasswordHash: "x"}
	require.NoError(t, db.Create(&author).Error)
	recipe := models.Recipe{AuthorID: author.ID, Name: "Soup", Text: "Boil", CookingTime: 10}
	require.NoError(t, db.Omit("Author", "Ingredients", "Tags").Create(&recipe).Error)

	require.NoError(t, db.Delete(&author).Error)

	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMigrationsRejectSelfSubscription(t *testing.T) {
	db := openMemory(t)

	u := models.User{Email: "u@example.com", Username: "someone", PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)

	err := db.Omit("Subscriber", "SubscribedTo").Create(&models.Subscription{SubscriberID: u.ID, SubscribedToID: u.ID}).Error
	assert.Error(t, err)
}
