// Package book reads opening books: flat files of 16-byte big-endian
// records, each a position key, a move, a weight and a learn value.
package book

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/theHamdiz/kishmat/cache"
	"github.com/theHamdiz/kishmat/config"
	"github.com/theHamdiz/kishmat/move"
)

const RecordSize = 16

var ErrBookLoadFailure = errors.New("book load failure")

// Entry is one book record. Raw holds the move as stored; see
// move.Decode for its layout.
type Entry struct {
	Key    uint64
	Raw    uint16
	Weight uint16
	Learn  uint32
}

func (e Entry) Move() move.Move { return move.Decode(e.Raw) }

// Annotation is the entry as shown to a user.
func (e Entry) Annotation() string {
	return fmt.Sprintf("book move %v (weight %d, learn %d)", e.Move(), e.Weight, e.Learn)
}

func (e Entry) marshal(buf []byte) {
	binary.BigEndian.PutUint64(buf[0:8], e.Key)
	binary.BigEndian.PutUint16(buf[8:10], e.Raw)
	binary.BigEndian.PutUint16(buf[10:12], e.Weight)
	binary.BigEndian.PutUint32(buf[12:16], e.Learn)
}

func unmarshal(buf []byte) Entry {
	return Entry{
		Key:    binary.BigEndian.Uint64(buf[0:8]),
		Raw:    binary.BigEndian.Uint16(buf[8:10]),
		Weight: binary.BigEndian.Uint16(buf[10:12]),
		Learn:  binary.BigEndian.Uint32(buf[12:16]),
	}
}

// Book maps position keys to their entries, kept in file order.
type Book struct {
	entries map[uint64][]Entry
	n       int
}

func New() *Book {
	return &Book{entries: make(map[uint64][]Entry)}
}

// Load reads records until EOF. A trailing partial record fails the whole
// load.
func Load(r io.Reader) (*Book, error) {
	b := New()
	br := bufio.NewReader(r)
	buf := make([]byte, RecordSize)
	for {
		_, err := io.ReadFull(br, buf)
		if err == io.EOF {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: partial record after %d entries", ErrBookLoadFailure, b.n)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBookLoadFailure, err)
		}
		b.Add(unmarshal(buf))
	}
	return b, nil
}

func cacheKey(path string) string { return "book:" + path }

func loadFromCache(cfg *config.Config, key string) (any, error) {
	path := key[len("book:"):]
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBookLoadFailure, err)
	}
	defer f.Close()
	b, err := Load(f)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("entries", b.Len()).Int("positions", len(b.entries)).Msg("loaded-book")
	return b, nil
}

// LoadFile loads the book at path once per process; later calls share it.
func LoadFile(cfg *config.Config, path string) (*Book, error) {
	obj, err := cache.Load(cfg, cacheKey(path), loadFromCache)
	if err != nil {
		return nil, err
	}
	return obj.(*Book), nil
}

func (b *Book) Add(e Entry) {
	b.entries[e.Key] = append(b.entries[e.Key], e)
	b.n++
}

// Len is the number of records.
func (b *Book) Len() int { return b.n }

// GetMove returns the entry with the highest weight for key. Equal weights
// go to the one that came first in the file.
func (b *Book) GetMove(key uint64) (Entry, bool) {
	es := b.entries[key]
	if len(es) == 0 {
		return Entry{}, false
	}
	return lo.MaxBy(es, func(a, best Entry) bool { return a.Weight > best.Weight }), true
}

// Entries returns every entry for key, heaviest first.
func (b *Book) Entries(key uint64) []Entry {
	es := slices.Clone(b.entries[key])
	slices.SortStableFunc(es, func(a, c Entry) int { return int(c.Weight) - int(a.Weight) })
	return es
}

// WriteTo writes the book sorted by key, file order kept within a key.
func (b *Book) WriteTo(w io.Writer) (int64, error) {
	keys := lo.Keys(b.entries)
	slices.Sort(keys)
	bw := bufio.NewWriter(w)
	buf := make([]byte, RecordSize)
	var written int64
	for _, k := range keys {
		for _, e := range b.entries[k] {
			e.marshal(buf)
			n, err := bw.Write(buf)
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
	}
	return written, bw.Flush()
}
