package ledgerstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/LeJamon/goFST/internal/storage/database"
	"github.com/pierrec/lz4"
)

// snapshotMagic opens every snapshot stream.
var snapshotMagic = []byte("FSTSNAP1")

// maxEntrySize bounds a single record so a corrupt length cannot trigger a
// huge allocation.
const maxEntrySize = 1 << 20

// importBatchSize is the number of entries written per database batch.
const importBatchSize = 1024

var (
	// ErrBadSnapshot is returned when a stream is not a snapshot.
	ErrBadSnapshot = errors.New("not a ledger snapshot")

	// ErrStoreNotEmpty is returned by Import into a store holding state.
	ErrStoreNotEmpty = errors.New("store is not empty")
)

// Export writes every entry to w as an lz4-compressed snapshot. Each
// record is the 32-byte key, a uvarint length and the entry bytes.
func (s *Store) Export(w io.Writer) (int, error) {
	if _, err := w.Write(snapshotMagic); err != nil {
		return 0, err
	}
	zw := lz4.NewWriter(w)

	var (
		n      int
		lenBuf [binary.MaxVarintLen64]byte
		werr   error
	)
	err := s.ForEach(func(key [32]byte, data []byte) bool {
		if _, werr = zw.Write(key[:]); werr != nil {
			return false
		}
		l := binary.PutUvarint(lenBuf[:], uint64(len(data)))
		if _, werr = zw.Write(lenBuf[:l]); werr != nil {
			return false
		}
		if _, werr = zw.Write(data); werr != nil {
			return false
		}
		n++
		return true
	})
	if err == nil {
		err = werr
	}
	if err != nil {
		return n, fmt.Errorf("export: %w", err)
	}
	if err := zw.Close(); err != nil {
		return n, fmt.Errorf("export: %w", err)
	}
	s.logger.Info("snapshot exported", "entries", n)
	return n, nil
}

// Import loads a snapshot written by Export into an empty store.
func (s *Store) Import(r io.Reader) (int, error) {
	existing, err := s.Len()
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, ErrStoreNotEmpty
	}

	header := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, header); err != nil || !bytes.Equal(header, snapshotMagic) {
		return 0, ErrBadSnapshot
	}
	br := bufio.NewReader(lz4.NewReader(r))

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.cache.Purge()

	var (
		n   int
		ops []database.BatchOperation
	)
	flush := func() error {
		if len(ops) == 0 {
			return nil
		}
		if err := s.db.Batch(context.Background(), ops); err != nil {
			return err
		}
		s.metrics.RecordBatch(len(ops))
		ops = ops[:0]
		return nil
	}

	for {
		var key [32]byte
		if _, err := io.ReadFull(br, key[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return n, fmt.Errorf("%w: truncated key: %v", ErrBadSnapshot, err)
		}
		size, err := binary.ReadUvarint(br)
		if err != nil || size > maxEntrySize {
			return n, fmt.Errorf("%w: bad entry length", ErrBadSnapshot)
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(br, data); err != nil {
			return n, fmt.Errorf("%w: truncated entry: %v", ErrBadSnapshot, err)
		}
		ops = append(ops, database.BatchOperation{Type: database.BatchPut, Key: dbKey(key), Value: data})
		n++
		if len(ops) >= importBatchSize {
			if err := flush(); err != nil {
				return n, fmt.Errorf("import: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return n, fmt.Errorf("import: %w", err)
	}
	s.logger.Info("snapshot imported", "entries", n)
	return n, nil
}
