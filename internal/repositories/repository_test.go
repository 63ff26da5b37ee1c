package repositories

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/japanesestudent/offline-service/internal/store"
	"github.com/stretchr/testify/require"
)

// setupTestDB opens a fresh migrated store on a temp file
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "offline.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	return s.DB()
}
