package metadata

import (
	"encoding/binary"

	errorsmod "cosmossdk.io/errors"
)

// rangeLength is the size of one (start, end) record in the aggregation header.
const rangeLength = 8

// Slot is the metadata of one aggregation submodule. An absent slot tells the
// module to skip that submodule.
type Slot struct {
	Metadata []byte
	Present  bool
}

// PresentSlot wraps metadata into a present slot.
func PresentSlot(metadata []byte) Slot {
	return Slot{Metadata: metadata, Present: true}
}

// EncodeAggregation encodes slots as a header of big endian (start, end)
// uint32 pairs followed by the present payloads. Offsets are absolute. A zero
// start marks an absent slot; present payloads always start at or after the
// header, so even an empty payload is distinguishable from absence.
func EncodeAggregation(slots []Slot) []byte {
	size := len(slots) * rangeLength
	for _, slot := range slots {
		if slot.Present {
			size += len(slot.Metadata)
		}
	}

	out := make([]byte, len(slots)*rangeLength, size)
	for i, slot := range slots {
		if !slot.Present {
			continue
		}
		start := uint32(len(out))
		out = append(out, slot.Metadata...)
		binary.BigEndian.PutUint32(out[i*rangeLength:], start)
		binary.BigEndian.PutUint32(out[i*rangeLength+4:], uint32(len(out)))
	}
	return out
}

// DecodeAggregation decodes the metadata of an aggregation with n submodules.
func DecodeAggregation(data []byte, n int) ([]Slot, error) {
	if n < 0 || len(data) < n*rangeLength {
		return nil, errorsmod.Wrapf(ErrMetadataTooShort, "aggregation header: expected %d bytes, got %d", n*rangeLength, len(data))
	}
	slots := make([]Slot, n)
	for i := 0; i < n; i++ {
		start := binary.BigEndian.Uint32(data[i*rangeLength:])
		end := binary.BigEndian.Uint32(data[i*rangeLength+4:])
		if start == 0 {
			continue
		}
		if start > end || uint64(end) > uint64(len(data)) {
			return nil, errorsmod.Wrapf(ErrInvalidRange, "submodule %d: [%d, %d) with %d bytes", i, start, end, len(data))
		}
		payload := make([]byte, end-start)
		copy(payload, data[start:end])
		slots[i] = PresentSlot(payload)
	}
	return slots, nil
}

// PresentCount counts present slots.
func PresentCount(slots []Slot) int {
	count := 0
	for _, slot := range slots {
		if slot.Present {
			count++
		}
	}
	return count
}
