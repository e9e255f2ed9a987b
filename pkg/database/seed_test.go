package database

import (
	"path/filepath"
	"testing"

	"rewind_backend/internal/config"
	"rewind_backend/internal/model"
	"rewind_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestParseEmbeddedCatalog(t *testing.T) {
	patterns, questions, err := ParseCatalog(catalogYAML)
	require.NoError(t, err)
	require.NotEmpty(t, patterns)
	require.NotEmpty(t, questions)

	ids := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		assert.NotEmpty(t, p.Name)
		ids[p.ID] = true
	}
	for i, q := range questions {
		assert.True(t, ids[q.PatternID], q.Title)
		assert.Equal(t, i+1, q.OrderIndex)
	}
}

func TestParseCatalogRejectsUnknownDifficulty(t *testing.T) {
	data := []byte(`
patterns:
  - name: Arrays
    category: Basics
    questions:
      - title: Two Sum
        difficulty: Easy
      - title: Mystery
        difficulty: IMPOSSIBLE
`)
	_, _, err := ParseCatalog(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mystery")
}

func TestSeedIsIdempotent(t *testing.T) {
	logger.InitNop()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "seed.db")), GormConfig("test"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	require.NoError(t, Seed(db))
	var first int64
	require.NoError(t, db.Model(&model.Question{}).Count(&first).Error)
	assert.Positive(t, first)

	require.NoError(t, Seed(db))
	var second int64
	require.NoError(t, db.Model(&model.Question{}).Count(&second).Error)
	assert.Equal(t, first, second)
}

func TestDialectorUnknownDriver(t *testing.T) {
	_, err := dialector(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)

	dial, err := dialector(&config.DatabaseConfig{Driver: "postgres", Host: "localhost", Port: 5432})
	require.NoError(t, err)
	assert.Equal(t, "postgres", dial.Name())
}
