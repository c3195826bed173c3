package boardvec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/boardvec/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.CollectionRepository())
		assert.NotNil(t, db.ItemRepository())
		assert.NotNil(t, db.UsageRepository())
		assert.NotNil(t, db.QuotaEngine())
		assert.NotNil(t, db.Embedder())
		assert.NotNil(t, db.ImageAnalyzer())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// A file where a directory is expected
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("in-memory database", func(t *testing.T) {
		db, err := NewDatabase("", WithInMemory())
		require.NoError(t, err)
		require.NotNil(t, db)
		assert.NoError(t, db.Close())
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, db)

	assert.NoError(t, db.Close())
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db, err := NewDatabase("", WithInMemory())
	require.NoError(t, err)
	defer db.Close()

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := db.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})

	t.Run("can create reembedder", func(t *testing.T) {
		reembedder := db.NewReembedder(nil, os.Stderr)
		require.NotNil(t, reembedder)
	})

	t.Run("orchestrator requires board client", func(t *testing.T) {
		_, err := db.NewOrchestrator(nil, nil)
		assert.Error(t, err)
	})
}

func TestDatabase_QuotaLimitsOption(t *testing.T) {
	limits := quota.DefaultLimits()
	limits.FreeLifetime = 5

	db, err := NewDatabase("", WithInMemory(), WithQuotaLimits(limits))
	require.NoError(t, err)
	defer db.Close()

	assert.NotNil(t, db.QuotaEngine())
}
