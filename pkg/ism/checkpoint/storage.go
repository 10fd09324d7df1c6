package checkpoint

import (
	"context"
	"fmt"
	"path"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
)

const latestIndexKey = "checkpoint_latest_index.json"

// CheckpointKey is the object name of the signed checkpoint at index.
func CheckpointKey(index uint32) string {
	return fmt.Sprintf("checkpoint_%d_with_id.json", index)
}

// Storage is a single validator's checkpoint storage location.
type Storage interface {
	// Fetch returns ErrNotFound when no checkpoint was published at index.
	Fetch(ctx context.Context, index uint32) (*SignedCheckpoint, error)
	Write(ctx context.Context, signed *SignedCheckpoint) error
	LatestIndex(ctx context.Context) (uint32, error)
	WriteLatestIndex(ctx context.Context, index uint32) error
	Location() string
}

// Fetcher fetches a validator's signed checkpoint at an index.
type Fetcher interface {
	FetchCheckpoint(ctx context.Context, validator common.Address, index uint32) (*SignedCheckpoint, error)
}

// Storages maps validators to their announced storage locations.
type Storages map[common.Address]Storage

var _ Fetcher = Storages(nil)

// FetchCheckpoint implements Fetcher.
func (s Storages) FetchCheckpoint(ctx context.Context, validator common.Address, index uint32) (*SignedCheckpoint, error) {
	storage, ok := s[validator]
	if !ok {
		return nil, errorsmod.Wrap(ErrNoStorage, validator.Hex())
	}
	return storage.Fetch(ctx, index)
}

func objectKey(folder, name string) string {
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}
