package notify

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type sqliteStore struct {
	db     *sql.DB
	logger logger.Logger
	mu     sync.Mutex
	closed bool
}

// NewSQLiteStore opens (or creates) the notification database at path.
func NewSQLiteStore(path string, log logger.Logger) (Store, error) {
	errFactory := errors.New()

	if path == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  path,
			Error: err.Error(),
		})
	}

	dsn := path + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}
	// A single connection keeps writes serialized
	db.SetMaxOpenConns(1)

	backupDir := filepath.Join(filepath.Dir(path), "backups")
	if err := ValidateAndUpdateSchema(db, backupDir, log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Info().
		Str("path", path).
		Int("schema_version", SchemaVersion).
		Msg("Notification store initialized")

	return &sqliteStore{
		db:     db,
		logger: log,
	}, nil
}

func (s *sqliteStore) Append(ctx context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, insertNotificationSQL,
		n.ID,
		string(n.Kind),
		n.Message,
		n.CreatedAt.UnixNano(),
		boolToInt(n.Read),
	)
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (s *sqliteStore) List(ctx context.Context) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	errFactory := errors.New()

	rows, err := s.db.QueryContext(ctx, listNotificationsSQL)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	out := make([]Notification, 0)
	for rows.Next() {
		var (
			n         Notification
			kind      string
			createdAt int64
			read      int
		)
		if err := rows.Scan(&n.ID, &kind, &n.Message, &createdAt, &read); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		n.Kind = Kind(kind)
		n.CreatedAt = time.Unix(0, createdAt).UTC()
		n.Read = read == 1
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return out, nil
}

func (s *sqliteStore) MarkAllRead(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, markAllReadSQL)
	if err != nil {
		return 0, errors.New().Wrap(ErrStorageAccess, err)
	}

	changed, err := res.RowsAffected()
	if err != nil {
		return 0, errors.New().Wrap(ErrStorageAccess, err)
	}

	return int(changed), nil
}

func (s *sqliteStore) UnreadCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx, unreadCountSQL).Scan(&n); err != nil {
		return 0, errors.New().Wrap(ErrStorageAccess, err)
	}

	return n, nil
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	// Checkpoint WAL and cleanup on close
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to checkpoint WAL")
	}

	if err := s.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	s.logger.Info().Msg("Notification store closed")

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
