package book

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theHamdiz/kishmat/board"
	"github.com/theHamdiz/kishmat/config"
	"github.com/theHamdiz/kishmat/move"
)

func record(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, b, RecordSize)
	return b
}

func TestDecodeLiteral(t *testing.T) {
	raw := record(t, "0000000000000001"+"01c4"+"0010"+"00000000")
	b, err := Load(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())

	e, ok := b.GetMove(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), e.Key)
	assert.Equal(t, uint16(16), e.Weight)
	assert.Equal(t, uint32(0), e.Learn)
	assert.Equal(t, board.Square(7), e.Move().From)
	assert.Equal(t, board.Square(4), e.Move().To)
	assert.Equal(t, move.NoPromotion, e.Move().Promotion)
	assert.Equal(t, "book move h1e1 (weight 16, learn 0)", e.Annotation())

	_, ok = b.GetMove(2)
	assert.False(t, ok)
}

func TestPartialRecord(t *testing.T) {
	raw := record(t, "0000000000000001"+"01c4"+"0010"+"00000000")
	raw = append(raw, 0, 0, 0, 0, 0, 0, 0, 9)
	_, err := Load(bytes.NewReader(raw))
	assert.True(t, errors.Is(err, ErrBookLoadFailure))
}

func TestEmptyBook(t *testing.T) {
	b, err := Load(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())
}

func TestHighestWeightWinsTiesInFileOrder(t *testing.T) {
	pos := board.StartingPosition()
	key := pos.Key()
	e4 := move.New(12, 28)
	d4 := move.New(11, 27)
	c4 := move.New(10, 26)
	b := New()
	b.Add(Entry{Key: key, Raw: c4.Encode(), Weight: 5})
	b.Add(Entry{Key: key, Raw: e4.Encode(), Weight: 40})
	b.Add(Entry{Key: key, Raw: d4.Encode(), Weight: 40})

	e, ok := b.GetMove(key)
	require.True(t, ok)
	assert.Equal(t, e4, e.Move())

	es := b.Entries(key)
	require.Len(t, es, 3)
	assert.Equal(t, e4, es[0].Move())
	assert.Equal(t, d4, es[1].Move())
	assert.Equal(t, c4, es[2].Move())

	var buf bytes.Buffer
	n, err := b.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(3*RecordSize), n)
	again, err := Load(&buf)
	require.NoError(t, err)
	got, _ := again.GetMove(key)
	assert.Equal(t, e, got)
}

func TestLoadFileIsCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.bin")
	raw := record(t, "0000000000000001"+"01c4"+"0010"+"00000000")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	cfg := config.DefaultConfig()
	b1, err := LoadFile(cfg, path)
	require.NoError(t, err)
	b2, err := LoadFile(cfg, path)
	require.NoError(t, err)
	assert.Same(t, b1, b2)

	_, err = LoadFile(cfg, filepath.Join(dir, "missing.bin"))
	assert.True(t, errors.Is(err, ErrBookLoadFailure))
}
