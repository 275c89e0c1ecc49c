// Package container opens and re-saves a Flash movie, locating the
// frame1 DoABC tag the ABC body lives in and leaving everything else in
// the movie (shapes, sounds, other tags) untouched.
package container

import (
	"fmt"

	"github.com/funvibe/funbit/pkg/funbit"
)

// ReadU30 reads one ABC-style variable-length unsigned integer (up to 5
// bytes, 7 payload bits per byte, high bit marking continuation) starting
// at data[pos], returning the value and the position just past it.
func ReadU30(data []byte, pos int) (uint32, int, error) {
	var v uint32
	for shift := uint(0); shift < 35; shift += 7 {
		if pos >= len(data) {
			return 0, pos, fmt.Errorf("container: u30 truncated at byte %d", pos)
		}
		b := data[pos]
		pos++
		v |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, pos, nil
		}
	}
	return v, pos, fmt.Errorf("container: u30 too long at byte %d", pos)
}

// Rect is an SWF RECT record: a bit-packed, arbitrary-width signed
// rectangle in twips (1/20 px). Unlike every other field in the container
// format this one is not byte-aligned, so it is decoded with funbit's
// Erlang-style bit-syntax matcher instead of the ad hoc byte readers above.
type Rect struct {
	MinX, MaxX, MinY, MaxY int32
}

// ParseRect decodes the RECT at the start of data (the SWF header's stage
// size field), returning the value and the number of whole bytes consumed
// (the format pads the final byte with zero bits).
func ParseRect(data []byte) (Rect, int, error) {
	var nbits uint8
	var minX, maxX, minY, maxY int64

	nbitsField := funbit.NewField(&nbits).WithSize(5)
	if _, err := funbit.Unpack(data, nbitsField); err != nil {
		return Rect{}, 0, fmt.Errorf("container: rect nbits: %w", err)
	}

	w := uint(nbits)
	minXField := funbit.NewField(&minX).WithSize(w).WithSigned(true)
	maxXField := funbit.NewField(&maxX).WithSize(w).WithSigned(true)
	minYField := funbit.NewField(&minY).WithSize(w).WithSigned(true)
	maxYField := funbit.NewField(&maxY).WithSize(w).WithSigned(true)

	totalBits := 5 + 4*w
	totalBytes := int((totalBits + 7) / 8)
	if totalBytes > len(data) {
		return Rect{}, 0, fmt.Errorf("container: rect needs %d bytes, have %d", totalBytes, len(data))
	}

	ctx := funbit.NewUnpackContext(data)
	if err := ctx.SkipBits(5); err != nil {
		return Rect{}, 0, fmt.Errorf("container: rect skip nbits: %w", err)
	}
	if _, err := ctx.Unpack(minXField, maxXField, minYField, maxYField); err != nil {
		return Rect{}, 0, fmt.Errorf("container: rect fields: %w", err)
	}

	return Rect{
		MinX: int32(minX),
		MaxX: int32(maxX),
		MinY: int32(minY),
		MaxY: int32(maxY),
	}, totalBytes, nil
}

// EncodeRect re-serializes r using the smallest nbits width that still
// represents every field, mirroring how the SWF compiler packs the stage
// rectangle on write.
func EncodeRect(r Rect) []byte {
	w := rectWidth(r)
	b := funbit.NewBuilder()
	b.AddField(funbit.NewField(uint8(w)).WithSize(5))
	b.AddField(funbit.NewField(int64(r.MinX)).WithSize(uint(w)).WithSigned(true))
	b.AddField(funbit.NewField(int64(r.MaxX)).WithSize(uint(w)).WithSigned(true))
	b.AddField(funbit.NewField(int64(r.MinY)).WithSize(uint(w)).WithSigned(true))
	b.AddField(funbit.NewField(int64(r.MaxY)).WithSize(uint(w)).WithSigned(true))
	out, _ := b.Build()
	return out
}

func rectWidth(r Rect) int {
	maxAbs := func(v int32) int32 {
		if v < 0 {
			return -v
		}
		return v
	}
	m := maxAbs(r.MinX)
	for _, v := range []int32{r.MaxX, r.MinY, r.MaxY} {
		if maxAbs(v) > m {
			m = maxAbs(v)
		}
	}
	bits := 2 // sign bit + at least one magnitude bit
	for (int32(1) << uint(bits-1)) <= m {
		bits++
	}
	return bits
}
