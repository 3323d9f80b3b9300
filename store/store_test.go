package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSize = 10

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data.txt"), testSize)
	require.NoError(t, err)
	return s
}

func pad(s string) []byte {
	buf := make([]byte, testSize)
	copy(buf, s)
	for i := len(s); i < testSize; i++ {
		buf[i] = ' '
	}
	return buf
}

func TestStore_AppendRead(t *testing.T) {
	s := newTestStore(t)

	for i, text := range []string{"first", "second", "third"} {
		pos, err := s.Append(pad(text))
		require.NoError(t, err)
		assert.Equal(t, i, pos)
	}

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	got, err := s.Read(1)
	require.NoError(t, err)
	assert.Equal(t, pad("second"), got)
}

func TestStore_Append_WrongWidth(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Append([]byte("short"))
	assert.Error(t, err)
}

func TestStore_Read_OutOfRange(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Append(pad("only"))
	require.NoError(t, err)

	tests := []struct {
		name string
		pos  int
	}{
		{name: "past the end", pos: 1},
		{name: "far past the end", pos: 99},
		{name: "negative", pos: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Read(tt.pos)
			assert.ErrorIs(t, err, ErrOutOfRange)
		})
	}
}

func TestStore_Rewrite(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Append(pad("aaa"))
	require.NoError(t, err)
	_, err = s.Append(pad("bbb"))
	require.NoError(t, err)

	require.NoError(t, s.Rewrite(0, pad("AAA")))

	// The rewrite changes neither the file length nor the other slot.
	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := s.Read(0)
	require.NoError(t, err)
	assert.Equal(t, pad("AAA"), got)

	got, err = s.Read(1)
	require.NoError(t, err)
	assert.Equal(t, pad("bbb"), got)

	assert.ErrorIs(t, s.Rewrite(2, pad("ccc")), ErrOutOfRange)
}

func TestStore_ReplaceAll(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Append(pad("old"))
	require.NoError(t, err)

	require.NoError(t, s.ReplaceAll([][]byte{pad("new1"), pad("new2")}))

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := s.Read(0)
	require.NoError(t, err)
	assert.Equal(t, pad("new1"), got)
}

func TestStore_All(t *testing.T) {
	s := newTestStore(t)
	texts := []string{"a", "b", "c"}
	for _, text := range texts {
		_, err := s.Append(pad(text))
		require.NoError(t, err)
	}

	var positions []int
	var payloads []string
	for pos, payload := range s.All() {
		positions = append(positions, pos)
		payloads = append(payloads, string(payload))
	}
	assert.Equal(t, []int{0, 1, 2}, positions)
	assert.Equal(t, []string{string(pad("a")), string(pad("b")), string(pad("c"))}, payloads)

	// Restartable: a second pass sees the same slots.
	n := 0
	for range s.All() {
		n++
	}
	assert.Equal(t, 3, n)
}

func TestStore_SlotAddressing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Append(pad("a"))
	require.NoError(t, err)
	_, err = s.Append(pad("b"))
	require.NoError(t, err)

	// Slot p starts at byte p*(size+1) and ends with the terminator.
	data, err := os.ReadFile(s.path)
	require.NoError(t, err)
	require.Len(t, data, 2*(testSize+1))
	assert.Equal(t, byte('\n'), data[testSize])
	assert.Equal(t, byte('b'), data[testSize+1])
}
