// Package ledger persists one composite record per pipeline tick to an
// append-only file: each record is msgpack-encoded and prefixed with its
// own 4-byte big-endian length, so a reader can walk the file without a
// delimiter that might collide with binary payload bytes. Appends are
// serialized by a mutex; a record is either fully written or not written
// at all.
package ledger

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/directive-engine/internal/domain"
)

// Record is one tick's full pipeline output: the snapshot every engine
// contributed to, every primary agent's suggestion, and the composer's
// final directive. Schema stability matters here — anything replaying
// a ledger file depends on the field set not silently changing shape.
type Record struct {
	Timestamp   time.Time
	Symbol      string
	Snapshot    domain.StandardSnapshot
	Suggestions []domain.Suggestion
	Composite   domain.CompositeMarketDirective
}

// Archiver uploads a rotated ledger file to cold storage. Implementations
// MUST NOT delete the local file; Writer.Rotate does not delete it either,
// so the rotated file stays on disk after Archive returns.
type Archiver interface {
	Archive(ctx context.Context, localPath string) error
}

// Writer appends Records to a single underlying file.
type Writer struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	archiver Archiver
}

// Open opens (creating if needed) the ledger file at path for appending.
func Open(path string, archiver Archiver) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	return &Writer{path: path, file: f, archiver: archiver}, nil
}

// Append encodes record as msgpack and writes it length-prefixed,
// serialized against concurrent Append/Rotate calls.
func (w *Writer) Append(record Record) error {
	payload, err := msgpack.Marshal(record)
	if err != nil {
		return fmt.Errorf("ledger: encode record: %w", err)
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Write(header[:]); err != nil {
		return fmt.Errorf("ledger: write length header: %w", err)
	}
	if _, err := w.file.Write(payload); err != nil {
		return fmt.Errorf("ledger: write payload: %w", err)
	}
	return nil
}

// Rotate closes the current file, renames it to rotatedPath, archives it
// (if an Archiver was configured), and reopens path fresh. The rename
// happens before archiving so a crash mid-upload never leaves the active
// ledger file half-uploaded.
func (w *Writer) Rotate(ctx context.Context, rotatedPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("ledger: close for rotation: %w", err)
	}
	if err := os.Rename(w.path, rotatedPath); err != nil {
		return fmt.Errorf("ledger: rename %s to %s: %w", w.path, rotatedPath, err)
	}

	if w.archiver != nil {
		if err := w.archiver.Archive(ctx, rotatedPath); err != nil {
			return fmt.Errorf("ledger: archive %s: %w", rotatedPath, err)
		}
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: reopen %s: %w", w.path, err)
	}
	w.file = f
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// ReadAll reads every Record from a ledger file in append order. Intended
// for tests and replay tooling, not the hot append path.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var records []Record
	for {
		var header [4]byte
		if _, err := io.ReadFull(reader, header[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("ledger: read length header: %w", err)
		}
		length := binary.BigEndian.Uint32(header[:])

		payload := make([]byte, length)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return nil, fmt.Errorf("ledger: read payload: %w", err)
		}

		var record Record
		if err := msgpack.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("ledger: decode record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}
