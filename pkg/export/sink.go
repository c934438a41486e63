package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/leratech/maweni-results/pkg/storage"
)

// DownloadSink receives generated documents one at a time.
type DownloadSink interface {
	Download(ctx context.Context, filename, contentType string, data []byte) error
}

// Document is a generated file ready to be delivered.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DirectorySink writes each document as its own file in local storage.
type DirectorySink struct {
	store *storage.LocalStorage
}

// NewDirectorySink writes documents under the storage root.
func NewDirectorySink(store *storage.LocalStorage) *DirectorySink {
	return &DirectorySink{store: store}
}

// Download saves the document. A partially written file never appears under
// its final name.
func (s *DirectorySink) Download(ctx context.Context, filename, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.store.Save(filename, data); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	return nil
}

// ZipSink appends documents to a single zip archive.
type ZipSink struct {
	mu     sync.Mutex
	zw     *zip.Writer
	dst    io.Closer
	count  int
	closed bool
	now    func() time.Time
}

// NewZipSink writes the archive to w. Close finalises the archive and closes
// w when it is an io.Closer.
func NewZipSink(w io.Writer) *ZipSink {
	s := &ZipSink{zw: zip.NewWriter(w), now: time.Now}
	if c, ok := w.(io.Closer); ok {
		s.dst = c
	}
	return s
}

// Download adds one entry to the archive.
func (s *ZipSink) Download(ctx context.Context, filename, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("zip archive already closed")
	}
	w, err := s.zw.CreateHeader(&zip.FileHeader{
		Name:     filename,
		Method:   zip.Deflate,
		Modified: s.now(),
	})
	if err != nil {
		return fmt.Errorf("add %s to archive: %w", filename, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s to archive: %w", filename, err)
	}
	s.count++
	return nil
}

// Count reports how many documents were added.
func (s *ZipSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close writes the zip directory.
func (s *ZipSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.zw.Close(); err != nil {
		return fmt.Errorf("finalise archive: %w", err)
	}
	if s.dst != nil {
		return s.dst.Close()
	}
	return nil
}

// MemorySink keeps documents in memory.
type MemorySink struct {
	mu   sync.Mutex
	docs []Document
}

// Download records the document.
func (s *MemorySink) Download(_ context.Context, filename, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, Document{Filename: filename, ContentType: contentType, Data: bytes.Clone(data)})
	return nil
}

// Documents returns what has been collected so far.
func (s *MemorySink) Documents() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}
