// Package slot implements the fixed-width text slot codec. A slot holds one
// record as a delimiter-joined sequence of scalar fields, right-padded with
// spaces to exactly the configured payload size. On disk every slot is
// followed by a single newline, so slot p starts at byte p*(size+1).
//
// The delimiter must not appear inside a field value; that is a caller
// constraint, not enforced here.
package slot

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultSize is the default slot payload width in bytes.
	DefaultSize = 500

	// Delimiter separates fields within a slot.
	Delimiter = ";"

	// Terminator follows every slot payload on disk.
	Terminator = '\n'

	padding = ' '
)

var (
	// ErrTooLarge reports a record whose encoded form does not fit the slot.
	ErrTooLarge = errors.New("slot: encoded record exceeds slot size")

	// ErrCorrupt reports a slot whose contents cannot be decoded.
	ErrCorrupt = errors.New("slot: corrupt record")
)

// Codec encodes and decodes slots of one fixed payload size.
type Codec struct {
	size int
}

// NewCodec returns a codec for the given payload size. Sizes below one fall
// back to DefaultSize.
func NewCodec(size int) Codec {
	if size < 1 {
		size = DefaultSize
	}
	return Codec{size: size}
}

// Size returns the slot payload width in bytes.
func (c Codec) Size() int { return c.size }

// Width returns the on-disk footprint of one slot: payload plus terminator.
func (c Codec) Width() int { return c.size + 1 }

// Encode joins fields with the delimiter and pads the result to exactly
// Size bytes. It fails with ErrTooLarge if the joined form, delimiters
// included, is wider than the slot.
func (c Codec) Encode(fields []string) ([]byte, error) {
	joined := strings.Join(fields, Delimiter)
	if len(joined) > c.size {
		return nil, fmt.Errorf("%w: %d bytes into %d", ErrTooLarge, len(joined), c.size)
	}
	buf := make([]byte, c.size)
	n := copy(buf, joined)
	for i := n; i < c.size; i++ {
		buf[i] = padding
	}
	return buf, nil
}

// Decode strips padding from a slot payload and splits it into fields. It
// fails with ErrCorrupt on a payload of the wrong width or an empty slot.
func (c Codec) Decode(data []byte) ([]string, error) {
	if len(data) != c.size {
		return nil, fmt.Errorf("%w: payload is %d bytes, want %d", ErrCorrupt, len(data), c.size)
	}
	s := strings.TrimRight(string(data), string(padding))
	if s == "" {
		return nil, fmt.Errorf("%w: empty slot", ErrCorrupt)
	}
	return strings.Split(s, Delimiter), nil
}
