// Package index implements the key→position index kept alongside each
// record store. The persisted form is a flat text file of "key;position"
// lines in insertion order; a rename re-sorts the whole file by key.
//
// Lookups go through an in-memory btree rebuilt from the file at open time.
// Duplicate keys are legal in the file; the tree only ever holds the first
// entry per key, so lookups are first-match-wins regardless of how many
// later lines shadow the key.
package index

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/google/btree"
	"github.com/google/renameio/v2"
)

// ErrKeyNotFound reports a rename of a key with no index entry.
var ErrKeyNotFound = errors.New("index: key not found")

const degree = 2

// Entry is one key→position pair.
type Entry struct {
	Key      string
	Position int
}

// Index is a handle on one index file plus its in-memory lookup cache.
type Index struct {
	path    string
	entries []Entry
	tree    *btree.BTreeG[Entry]
}

func byKey(a, b Entry) bool { return a.Key < b.Key }

// Open loads the index file at path, creating it if absent, and builds the
// lookup cache.
func Open(path string) (*Index, error) {
	ix := &Index{path: path, tree: btree.NewG(degree, byKey)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := ix.write(); err != nil {
			return nil, err
		}
		return ix, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("index: %s: %w", path, err)
		}
		ix.add(entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("index: read %s: %w", path, err)
	}
	return ix, nil
}

func parseLine(line string) (Entry, error) {
	key, posText, ok := strings.Cut(line, ";")
	if !ok {
		return Entry{}, fmt.Errorf("invalid line %q", line)
	}
	pos, err := strconv.Atoi(posText)
	if err != nil || pos < 0 {
		return Entry{}, fmt.Errorf("invalid position in line %q", line)
	}
	return Entry{Key: key, Position: pos}, nil
}

// add appends to the entry list and caches the entry unless the key is
// already present, keeping the earliest entry authoritative.
func (ix *Index) add(entry Entry) {
	ix.entries = append(ix.entries, entry)
	if _, ok := ix.tree.Get(Entry{Key: entry.Key}); !ok {
		ix.tree.ReplaceOrInsert(entry)
	}
}

// Len returns the number of entries, duplicates included.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns a copy of all entries in file order.
func (ix *Index) Entries() []Entry {
	return slices.Clone(ix.entries)
}

// Lookup returns the position stored for key, or false if the key has no
// entry. With duplicate keys the first-inserted entry wins.
func (ix *Index) Lookup(key string) (int, bool) {
	entry, ok := ix.tree.Get(Entry{Key: key})
	if !ok {
		return 0, false
	}
	return entry.Position, true
}

// Append adds one entry and rewrites the whole file. Write cost is traded
// for simplicity; the expected data volumes keep this cheap.
func (ix *Index) Append(key string, pos int) error {
	ix.add(Entry{Key: key, Position: pos})
	return ix.write()
}

// Rename replaces oldKey with newKey on the first matching entry, re-sorts
// every entry by key and rewrites the file. The sorted order is an
// invariant of the rename path only; appends keep insertion order.
func (ix *Index) Rename(oldKey, newKey string) error {
	at := slices.IndexFunc(ix.entries, func(e Entry) bool { return e.Key == oldKey })
	if at < 0 {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, oldKey)
	}
	ix.entries[at].Key = newKey
	slices.SortStableFunc(ix.entries, func(a, b Entry) int {
		return strings.Compare(a.Key, b.Key)
	})

	ix.tree = btree.NewG(degree, byKey)
	for _, entry := range ix.entries {
		if _, ok := ix.tree.Get(Entry{Key: entry.Key}); !ok {
			ix.tree.ReplaceOrInsert(entry)
		}
	}
	return ix.write()
}

// write atomically replaces the index file with the current entries.
func (ix *Index) write() error {
	var b strings.Builder
	for _, entry := range ix.entries {
		fmt.Fprintf(&b, "%s;%d\n", entry.Key, entry.Position)
	}
	if err := renameio.WriteFile(ix.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("index: write %s: %w", ix.path, err)
	}
	return nil
}
