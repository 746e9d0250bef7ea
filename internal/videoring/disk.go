package videoring

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/keepclip/keepclip/internal/clock"
	kcerrors "github.com/keepclip/keepclip/internal/errors"
	"github.com/keepclip/keepclip/internal/observability/metrics"
)

// metadataBytes is the fixed-size header prefixing every disk slot:
// 8 bytes timestamp, 4 bytes original_index, 1 byte valid, 4 bytes
// blob_len, rounded up to a 24-byte aligned region.
const metadataBytes = 24

type evictedFrame struct {
	ts            clock.Timestamp
	originalIndex int32
	blob          []byte
}

// diskTier is the memory-mapped (or, on unsupported platforms,
// plain-file) backing store for frames evicted from the memory tier.
// A single background worker owns the write cursor; reads during
// extraction take diskTier.mu for the whole walk.
type diskTier struct {
	mu sync.Mutex

	file *os.File
	path string
	data []byte // non-nil when mmap succeeded

	capacityFrames int
	stride         int
	maxCompressed  int

	writeCursor int
	frameCount  int

	queue  chan evictedFrame
	wg     sync.WaitGroup
	closed bool

	logger *slog.Logger
	rec    metrics.Recorder
}

func newDiskTier(tempDir string, capacityFrames, maxCompressed, queueSize int, logger *slog.Logger, rec metrics.Recorder) (*diskTier, error) {
	if capacityFrames <= 0 {
		return nil, nil
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	stride := metadataBytes + maxCompressed
	path := filepath.Join(tempDir, fmt.Sprintf("keepclip-videoring-%s.bin", uuid.NewString()))
	size := int64(capacityFrames) * int64(stride)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, kcerrors.New(err).
			Component("videoring").
			Category(kcerrors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(path)
		return nil, kcerrors.New(err).
			Component("videoring").
			Category(kcerrors.CategoryDiskIO).
			Context("path", path).
			Build()
	}

	var data []byte
	if mapped, mmapErr := mmapFile(f, size); mmapErr == nil {
		data = mapped
	} else {
		logger.Info("videoring: mmap unsupported, falling back to file I/O for disk tier", "error", mmapErr)
	}

	if queueSize <= 0 {
		queueSize = capacityFrames
	}

	d := &diskTier{
		file:           f,
		path:           path,
		data:           data,
		capacityFrames: capacityFrames,
		stride:         stride,
		maxCompressed:  maxCompressed,
		queue:          make(chan evictedFrame, queueSize),
		logger:         logger,
		rec:            rec,
	}
	d.wg.Add(1)
	go d.run()
	return d, nil
}

func (d *diskTier) run() {
	defer d.wg.Done()
	for ef := range d.queue {
		if err := d.writeEvicted(ef); err != nil {
			d.logger.Warn("videoring: disk write failed, dropping evicted frame", "error", err)
			d.rec.RecordError("disk_write", "io")
		}
	}
}

// enqueue hands an evicted frame to the writer worker. The queue is
// bounded with drop-newest semantics: producer cadence must never wait
// on disk I/O.
func (d *diskTier) enqueue(ef evictedFrame) {
	select {
	case d.queue <- ef:
	default:
		d.logger.Warn("videoring: disk writer queue full, dropping evicted frame", "timestamp", ef.ts)
		d.rec.RecordOperation("disk_write", "dropped")
	}
}

func (d *diskTier) writeEvicted(ef evictedFrame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	pos := d.writeCursor % d.capacityFrames
	d.writeCursor++
	if err := d.writeSlotLocked(pos, ef.ts, ef.originalIndex, ef.blob); err != nil {
		return err
	}
	if d.frameCount < d.capacityFrames {
		d.frameCount++
	}
	return nil
}

func (d *diskTier) writeSlotLocked(pos int, ts clock.Timestamp, originalIndex int32, blob []byte) error {
	var meta [metadataBytes]byte
	binary.LittleEndian.PutUint64(meta[0:8], uint64(ts))
	binary.LittleEndian.PutUint32(meta[8:12], uint32(originalIndex))
	meta[12] = 1
	binary.LittleEndian.PutUint32(meta[13:17], uint32(len(blob)))

	offset := int64(pos) * int64(d.stride)
	if err := d.writeAt(offset, meta[:]); err != nil {
		return err
	}
	return d.writeAt(offset+metadataBytes, blob)
}

// readSlotLocked reads one slot's metadata and, if valid, its blob. The
// caller must hold d.mu.
func (d *diskTier) readSlotLocked(pos int) (ts clock.Timestamp, valid bool, blob []byte, err error) {
	var meta [metadataBytes]byte
	offset := int64(pos) * int64(d.stride)
	if err := d.readAt(offset, meta[:]); err != nil {
		return 0, false, nil, err
	}
	if meta[12] == 0 {
		return 0, false, nil, nil
	}
	ts = clock.Timestamp(binary.LittleEndian.Uint64(meta[0:8]))
	blobLen := binary.LittleEndian.Uint32(meta[13:17])
	if int(blobLen) > d.maxCompressed {
		return 0, false, nil, kcerrors.Newf("disk slot %d reports implausible blob length %d", pos, blobLen).
			Component("videoring").
			Category(kcerrors.CategoryDiskIO).
			Build()
	}
	blob = make([]byte, blobLen)
	if err := d.readAt(offset+metadataBytes, blob); err != nil {
		return 0, false, nil, err
	}
	return ts, true, blob, nil
}

// clear marks every disk slot invalid (lazy retirement) and resets the
// write cursor; the backing file is never truncated.
func (d *diskTier) clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero [metadataBytes]byte
	for pos := range d.capacityFrames {
		if err := d.writeAt(int64(pos)*int64(d.stride), zero[:]); err != nil {
			return err
		}
	}
	d.writeCursor = 0
	d.frameCount = 0
	return nil
}

// oldestToNewestLocked calls fn for every valid slot, oldest first, stopping
// early if fn returns false. The caller must hold d.mu for the duration.
func (d *diskTier) oldestToNewestLocked(fn func(ts clock.Timestamp, blob []byte) (keepGoing bool)) error {
	start := d.writeCursor - d.frameCount
	for start < 0 {
		start += d.capacityFrames
	}
	for step := range d.frameCount {
		pos := (start + step) % d.capacityFrames
		ts, valid, blob, err := d.readSlotLocked(pos)
		if err != nil {
			return err
		}
		if !valid {
			continue
		}
		if !fn(ts, blob) {
			return nil
		}
	}
	return nil
}

func (d *diskTier) fileSize() (int64, error) {
	info, err := d.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (d *diskTier) writeAt(offset int64, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if d.data != nil {
		if int(offset)+len(b) > len(d.data) {
			return io.ErrShortBuffer
		}
		copy(d.data[offset:], b)
		return nil
	}
	_, err := d.file.WriteAt(b, offset)
	return err
}

func (d *diskTier) readAt(offset int64, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if d.data != nil {
		if int(offset)+len(b) > len(d.data) {
			return io.ErrUnexpectedEOF
		}
		copy(b, d.data[offset:])
		return nil
	}
	_, err := d.file.ReadAt(b, offset)
	return err
}

// close stops the writer worker, unmaps and closes the file, and
// removes it from disk on a best-effort basis.
func (d *diskTier) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.queue)
	d.wg.Wait()

	if d.data != nil {
		_ = munmapFile(d.data)
	}
	_ = d.file.Close()
	_ = os.Remove(d.path)
}
