package notify_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/kitchenctl/internal/logger"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "notifications.db")

	store, err := notify.NewSQLiteStore(path, logger.For("test"))
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, notify.Notification{
		ID: "a", Kind: notify.KindDanger, Message: "Gas leak detected", CreatedAt: epoch,
	}))
	require.NoError(t, store.Append(ctx, notify.Notification{
		ID: "b", Kind: notify.KindInfo, Message: "test", CreatedAt: epoch,
	}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID, "Expected insertion order to break timestamp ties")
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, notify.KindDanger, list[1].Kind)
	assert.True(t, epoch.Equal(list[1].CreatedAt))

	unread, err := store.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	changed, err := store.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	changed, err = store.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "Expected Close to be idempotent")

	// Reopen: the log survives restarts
	store, err = notify.NewSQLiteStore(path, logger.For("test"))
	require.NoError(t, err)
	defer store.Close()

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Read)
}

func TestSQLiteStoreRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	store, err := notify.NewSQLiteStore(filepath.Join(t.TempDir(), "n.db"), logger.For("test"))
	require.NoError(t, err)
	defer store.Close()

	n := notify.Notification{ID: "dup", Kind: notify.KindInfo, Message: "x", CreatedAt: epoch}
	require.NoError(t, store.Append(ctx, n))
	require.Error(t, store.Append(ctx, n))
}

func TestSQLiteStoreMigratesOldSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "n.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
		INSERT INTO schema_versions (version, applied_at) VALUES (99, datetime('now'));
		CREATE TABLE notifications (legacy TEXT);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := notify.NewSQLiteStore(path, logger.For("test"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(context.Background(), notify.Notification{
		ID: "a", Kind: notify.KindInfo, Message: "x", CreatedAt: epoch,
	}))

	backups, err := filepath.Glob(filepath.Join(dir, "backups", "notifications_v99_*.db"))
	require.NoError(t, err)
	assert.Len(t, backups, 1, "Expected the old schema to be backed up")
}

func TestCenterWithSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := notify.NewSQLiteStore(filepath.Join(t.TempDir(), "n.db"), logger.For("test"))
	require.NoError(t, err)

	c := notify.NewCenter(store, nil, notify.WithClock(steppingClock()))
	_, err = c.Create(ctx, notify.KindWarning, "warm")
	require.NoError(t, err)
	_, err = c.Create(ctx, notify.KindDanger, "hot")
	require.NoError(t, err)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hot", list[0].Message)

	require.NoError(t, c.Close())
}
