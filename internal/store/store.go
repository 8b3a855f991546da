package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"shelfmark/internal/config"
	"shelfmark/internal/fileutil"
	"shelfmark/internal/logging"
	"shelfmark/internal/preflight"
	"shelfmark/internal/registry"
)

var (
	// ErrCorruption indicates the store file and every backup failed to load.
	ErrCorruption = errors.New("store corruption")
	// ErrSchemaMismatch indicates the store was written by a newer schema.
	ErrSchemaMismatch = errors.New("store schema mismatch")
	// ErrLockTimeout indicates the advisory lock could not be acquired within
	// the bounded wait. Retryable by the caller.
	ErrLockTimeout = errors.New("store lock timeout")
)

// lockRetryDelay is the poll interval while waiting on the advisory lock.
const lockRetryDelay = 50 * time.Millisecond

// Store manages the on-disk inventory file.
type Store struct {
	path        string
	lock        *flock.Flock
	backupCount int
	lockTimeout time.Duration
	minFree     uint64
	logger      *slog.Logger
}

// Open prepares a store rooted at the configured data directory. The store
// file itself is created lazily on first commit.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("store requires config")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	path := cfg.StorePath()
	return &Store{
		path:        path,
		lock:        flock.New(path + ".lock"),
		backupCount: cfg.Store.BackupCount,
		lockTimeout: cfg.LockTimeout(),
		minFree:     uint64(cfg.Store.MinFreeMiB) << 20,
		logger:      logging.NewComponentLogger(logger, "store"),
	}, nil
}

// Path returns the canonical store file location.
func (s *Store) Path() string {
	return s.path
}

// Mutate runs fn against the current state under the exclusive cross-process
// lock and commits the result atomically. If fn returns an error nothing is
// written.
func (s *Store) Mutate(ctx context.Context, fn func(*registry.State) error) error {
	release, err := s.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer release()

	state, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	state.LastUpdated = time.Now().UTC()
	return s.commit(state)
}

// Snapshot returns a consistent read-only copy of the current state, taken
// under the shared lock.
func (s *Store) Snapshot(ctx context.Context) (*registry.State, error) {
	release, err := s.acquire(ctx, false)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.load()
}

func (s *Store) acquire(ctx context.Context, exclusive bool) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = s.lock.TryLockContext(waitCtx, lockRetryDelay)
	} else {
		ok, err = s.lock.TryRLockContext(waitCtx, lockRetryDelay)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: waited %s for %s", ErrLockTimeout, s.lockTimeout, s.lock.Path())
		}
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: waited %s for %s", ErrLockTimeout, s.lockTimeout, s.lock.Path())
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release store lock", logging.Error(err))
		}
	}, nil
}

// load reads the canonical file, falling back to the newest valid backup when
// the canonical copy is corrupt. Callers must hold the lock.
func (s *Store) load() (*registry.State, error) {
	state, err := decodeStateFile(s.path)
	if err == nil {
		return state, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return registry.NewState(), nil
	}
	if errors.Is(err, ErrSchemaMismatch) {
		return nil, err
	}

	s.logger.Warn("store file unreadable, trying backups",
		logging.String("path", s.path),
		logging.Error(err))

	for n := 1; n <= s.backupCount; n++ {
		backup := s.backupPath(n)
		state, backupErr := decodeStateFile(backup)
		if backupErr != nil {
			continue
		}
		s.logger.Warn("recovered store from backup",
			logging.String("backup", backup))
		return state, nil
	}

	return nil, fmt.Errorf("%w: %s unreadable and no valid backup found: %v", ErrCorruption, s.path, err)
}

func decodeStateFile(path string) (*registry.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state registry.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse store file %s: %w", path, err)
	}
	if state.Version == 0 {
		return nil, fmt.Errorf("store file %s missing schema version", path)
	}
	if state.Version > registry.SchemaVersion {
		return nil, fmt.Errorf("%w: file has version %d, this build understands %d",
			ErrSchemaMismatch, state.Version, registry.SchemaVersion)
	}
	state.Normalize()
	return &state, nil
}

// commit writes the state atomically: temp file, fsync, rename. The previous
// canonical file is rotated into the backup chain first.
func (s *Store) commit(state *registry.State) error {
	if s.minFree > 0 {
		if res := preflight.CheckFreeSpace(filepath.Dir(s.path), s.minFree); !res.Passed {
			return fmt.Errorf("refusing to commit: %s", res.Detail)
		}
	}

	state.Version = registry.SchemaVersion
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store state: %w", err)
	}

	if err := s.rotateBackups(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// rotateBackups shifts store.json.1..N-1 up by one and copies the current
// canonical file into slot 1.
func (s *Store) rotateBackups() error {
	if s.backupCount == 0 {
		return nil
	}
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat store file: %w", err)
	}

	for n := s.backupCount - 1; n >= 1; n-- {
		src := s.backupPath(n)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, s.backupPath(n+1)); err != nil {
			return fmt.Errorf("rotate backup %d: %w", n, err)
		}
	}
	if err := fileutil.CopyFileVerified(s.path, s.backupPath(1)); err != nil {
		return fmt.Errorf("back up store file: %w", err)
	}
	return nil
}

func (s *Store) backupPath(n int) string {
	return fmt.Sprintf("%s.%d", s.path, n)
}
