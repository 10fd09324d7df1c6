package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/gofrs/flock"
)

const (
	lockFile       = ".lock"
	lockRetryDelay = 10 * time.Millisecond
)

// LocalStorage keeps checkpoints in a directory. Writers and readers
// coordinate through an advisory file lock so a relayer never observes a
// partially written checkpoint.
type LocalStorage struct {
	dir      string
	lockPath string
}

var _ Storage = (*LocalStorage)(nil)

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &LocalStorage{
		dir:      dir,
		lockPath: filepath.Join(dir, lockFile),
	}, nil
}

func (l *LocalStorage) Location() string {
	return "file://" + l.dir
}

func (l *LocalStorage) Fetch(ctx context.Context, index uint32) (*SignedCheckpoint, error) {
	data, err := l.read(ctx, CheckpointKey(index))
	if err != nil {
		return nil, err
	}
	var signed SignedCheckpoint
	if err := json.Unmarshal(data, &signed); err != nil {
		return nil, err
	}
	return &signed, nil
}

func (l *LocalStorage) Write(ctx context.Context, signed *SignedCheckpoint) error {
	data, err := json.MarshalIndent(signed, "", "  ")
	if err != nil {
		return err
	}
	return l.write(ctx, CheckpointKey(signed.Value.Index), data)
}

func (l *LocalStorage) LatestIndex(ctx context.Context) (uint32, error) {
	data, err := l.read(ctx, latestIndexKey)
	if err != nil {
		return 0, err
	}
	index, err := strconv.ParseUint(string(bytes.TrimSpace(data)), 10, 32)
	if err != nil {
		return 0, errorsmod.Wrap(ErrMalformed, err.Error())
	}
	return uint32(index), nil
}

func (l *LocalStorage) WriteLatestIndex(ctx context.Context, index uint32) error {
	return l.write(ctx, latestIndexKey, []byte(strconv.FormatUint(uint64(index), 10)))
}

func (l *LocalStorage) read(ctx context.Context, name string) ([]byte, error) {
	lock := flock.New(l.lockPath)
	locked, err := lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", l.dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock %s", l.dir)
	}
	defer lock.Unlock() //nolint:errcheck

	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errorsmod.Wrapf(ErrNotFound, "%s/%s", l.dir, name)
	}
	return data, err
}

func (l *LocalStorage) write(ctx context.Context, name string, data []byte) error {
	lock := flock.New(l.lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", l.dir, err)
	}
	if !locked {
		return fmt.Errorf("failed to lock %s", l.dir)
	}
	defer lock.Unlock() //nolint:errcheck

	tmp := filepath.Join(l.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(l.dir, name))
}
