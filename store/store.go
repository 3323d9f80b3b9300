// Package store implements the record store: an append-only file of
// fixed-size slots addressed by zero-based position. Records are appended,
// read back and rewritten in place; they never move and are never removed.
//
// Every operation opens the backing file, does its work and closes it again.
// The store assumes a single writer and an always-available filesystem; I/O
// failures propagate to the caller without retry.
package store

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/google/renameio/v2"
)

// ErrOutOfRange reports a position beyond the current slot count.
var ErrOutOfRange = errors.New("store: position out of range")

// Store is a handle on one fixed-slot record file.
type Store struct {
	path string
	size int
}

// Open returns a store over the file at path with the given slot payload
// size, creating the file if it does not exist.
func Open(path string, size int) (*Store, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &Store{path: path, size: size}, nil
}

// Size returns the slot payload width in bytes.
func (s *Store) Size() int { return s.size }

func (s *Store) width() int64 { return int64(s.size) + 1 }

// Count returns the number of slots currently in the file.
func (s *Store) Count() (int, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0, fmt.Errorf("store: stat %s: %w", s.path, err)
	}
	return int(info.Size() / s.width()), nil
}

// Append writes one slot at end-of-file and returns its position. The file
// grows by exactly size+1 bytes: the payload plus a newline terminator.
func (s *Store) Append(payload []byte) (int, error) {
	if len(payload) != s.size {
		return 0, fmt.Errorf("store: payload is %d bytes, want %d", len(payload), s.size)
	}
	pos, err := s.Count()
	if err != nil {
		return 0, err
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("store: open %s: %w", s.path, err)
	}
	defer f.Close()
	buf := make([]byte, 0, s.width())
	buf = append(buf, payload...)
	buf = append(buf, '\n')
	if _, err := f.Write(buf); err != nil {
		return 0, fmt.Errorf("store: append to %s: %w", s.path, err)
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("store: sync %s: %w", s.path, err)
	}
	return pos, nil
}

// Read returns the payload of the slot at pos. It fails with ErrOutOfRange
// if pos does not address an existing slot.
func (s *Store) Read(pos int) ([]byte, error) {
	if err := s.check(pos); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", s.path, err)
	}
	defer f.Close()
	payload := make([]byte, s.size)
	if _, err := f.ReadAt(payload, int64(pos)*s.width()); err != nil {
		return nil, fmt.Errorf("store: read slot %d of %s: %w", pos, s.path, err)
	}
	return payload, nil
}

// Rewrite overwrites the payload of the slot at pos in place. The file
// length and all other slots are untouched; the slot terminator stays where
// it is. Fails with ErrOutOfRange if pos does not address an existing slot.
func (s *Store) Rewrite(pos int, payload []byte) error {
	if len(payload) != s.size {
		return fmt.Errorf("store: payload is %d bytes, want %d", len(payload), s.size)
	}
	if err := s.check(pos); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: open %s: %w", s.path, err)
	}
	defer f.Close()
	if _, err := f.WriteAt(payload, int64(pos)*s.width()); err != nil {
		return fmt.Errorf("store: rewrite slot %d of %s: %w", pos, s.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("store: sync %s: %w", s.path, err)
	}
	return nil
}

// ReplaceAll rewrites the whole file from the given slots, atomically
// replacing the previous contents. Positions are reassigned front to back.
func (s *Store) ReplaceAll(payloads [][]byte) error {
	buf := make([]byte, 0, len(payloads)*int(s.width()))
	for i, payload := range payloads {
		if len(payload) != s.size {
			return fmt.Errorf("store: payload %d is %d bytes, want %d", i, len(payload), s.size)
		}
		buf = append(buf, payload...)
		buf = append(buf, '\n')
	}
	if err := renameio.WriteFile(s.path, buf, 0o644); err != nil {
		return fmt.Errorf("store: replace %s: %w", s.path, err)
	}
	return nil
}

// All iterates all slots front to back, yielding each position and payload.
// Every call re-opens the file, so the sequence is restartable. Iteration
// stops at end-of-file or at the first short read.
func (s *Store) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		f, err := os.Open(s.path)
		if err != nil {
			return
		}
		defer f.Close()
		for pos := 0; ; pos++ {
			buf := make([]byte, s.width())
			if _, err := io.ReadFull(f, buf); err != nil {
				return
			}
			if !yield(pos, buf[:s.size]) {
				return
			}
		}
	}
}

func (s *Store) check(pos int) error {
	count, err := s.Count()
	if err != nil {
		return err
	}
	if pos < 0 || pos >= count {
		return fmt.Errorf("%w: position %d, have %d slots", ErrOutOfRange, pos, count)
	}
	return nil
}
