package database

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"thyrosight/models"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	upSQL := string(body)

	for _, table := range []string{
		"users", "assessment", "medical_history", "family_history",
		"current_symptoms", "lab_results", "prediction_result", "explanation_factors",
	} {
		assert.Contains(t, upSQL, "CREATE TABLE IF NOT EXISTS "+table+" ", table)
	}
	assert.Contains(t, upSQL, "c_score DECIMAL(5,2)")
	assert.Equal(t, 6, strings.Count(upSQL, "ON DELETE CASCADE"))

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	body, err = io.ReadAll(down)
	require.NoError(t, err)
	assert.Contains(t, string(body), "DROP TABLE IF EXISTS assessment;")
}

func TestAutoMigrate(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, AutoMigrate(db))
	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasColumn(&models.PredictionResult{}, "c_score"))
	assert.True(t, db.Migrator().HasColumn(&models.FamilyHistory{}, "fh_thyroid_cancer"))
}

func TestClose_WithoutInit(t *testing.T) {
	old := DB
	DB = nil
	defer func() { DB = old }()
	assert.NoError(t, Close())
}
