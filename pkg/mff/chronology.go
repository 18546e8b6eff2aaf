package mff

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// SegmentStore is a segmented append store keyed by monotonic block
// height, with a time register whose tip is the height of the most
// recently begun segment.
type SegmentStore struct {
	dir    string
	prefix string

	file   *os.File
	writer *bufio.Writer
	tip    uint32
	began  bool

	// openedThisRun records which heights this process has already begun
	// a segment for, so a later BeginSegment for the same height (a
	// reorg returning to or below an already-written height) truncates
	// instead of appending after stale, pre-reorg bytes. A height begun
	// for the first time this run, even if its file already exists from
	// a previous run, is opened in append mode so a resumed stream can
	// continue a segment it left mid-write.
	openedThisRun map[uint32]bool
}

// OpenSegmentStore creates dir if needed and returns a store with an
// initial segment at height 0 already begun, so events written before the
// first confirm_block land somewhere rather than finding no open segment.
func OpenSegmentStore(dir, prefix string) (*SegmentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mff: creating segment directory: %w", err)
	}
	s := &SegmentStore{dir: dir, prefix: prefix, openedThisRun: make(map[uint32]bool)}
	if err := s.BeginSegment(0); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SegmentStore) segmentPath(height uint32) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%010d.seg", s.prefix, height))
}

// BeginSegment flushes and closes the current segment (if any) and opens
// the segment for height, creating it if it does not exist. The tip of
// the time register advances to height. Reopening a height this process
// already began truncates that segment's file first: whatever it held was
// written before a reorg invalidated it, and must not be replayed ahead of
// the intervening higher-height segments that came after it.
func (s *SegmentStore) BeginSegment(height uint32) error {
	if s.writer != nil {
		if err := s.writer.Flush(); err != nil {
			return fmt.Errorf("mff: flushing segment %010d: %w", s.tip, err)
		}
		if err := s.file.Close(); err != nil {
			return fmt.Errorf("mff: closing segment %010d: %w", s.tip, err)
		}
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if s.openedThisRun[height] {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(s.segmentPath(height), flags, 0o644)
	if err != nil {
		return fmt.Errorf("mff: opening segment %010d: %w", height, err)
	}
	s.openedThisRun[height] = true
	s.file = f
	s.writer = bufio.NewWriter(f)
	s.tip = height
	s.began = true
	return nil
}

// Writer returns the buffered writer for the current segment. Callers
// must have called BeginSegment at least once.
func (s *SegmentStore) Writer() *bufio.Writer {
	return s.writer
}

// Flush flushes the current segment's buffer to disk.
func (s *SegmentStore) Flush() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Flush()
}

// Tip is the height of the most recently begun segment, or 0 if none has
// been begun yet.
func (s *SegmentStore) Tip() uint32 {
	if !s.began {
		return 0
	}
	return s.tip
}

// Close flushes and closes the current segment file.
func (s *SegmentStore) Close() error {
	if s.writer == nil {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		return err
	}
	return s.file.Close()
}

// SegmentReader concatenates a directory's segments, in height order,
// into one sequential byte stream, so a Reader crosses segment boundaries
// in exactly the order a Writer produced them.
type SegmentReader struct {
	reader  *bufio.Reader
	heights []uint32
	closers []io.Closer
}

// OpenSegmentReader opens every "<prefix>-*.seg" file under dir, sorted by
// the height encoded in its name, and returns a reader over their
// concatenation.
func OpenSegmentReader(dir, prefix string) (*SegmentReader, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("mff: reading segment directory: %w", err)
	}
	var heights []uint32
	names := map[uint32]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		var height uint32
		_, err := fmt.Sscanf(e.Name(), prefix+"-%010d.seg", &height)
		if err != nil {
			continue
		}
		heights = append(heights, height)
		names[height] = e.Name()
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	readers := make([]io.Reader, 0, len(heights))
	closers := make([]io.Closer, 0, len(heights))
	for _, h := range heights {
		f, err := os.Open(filepath.Join(dir, names[h]))
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, fmt.Errorf("mff: opening segment %010d: %w", h, err)
		}
		readers = append(readers, f)
		closers = append(closers, f)
	}
	return &SegmentReader{
		reader:  bufio.NewReader(io.MultiReader(readers...)),
		heights: heights,
		closers: closers,
	}, nil
}

// Reader returns the concatenated, buffered reader over all segments.
func (s *SegmentReader) Reader() *bufio.Reader {
	return s.reader
}

// Heights returns the segment heights found, in ascending order.
func (s *SegmentReader) Heights() []uint32 {
	return s.heights
}

// Close closes every underlying segment file.
func (s *SegmentReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
