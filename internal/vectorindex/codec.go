package vectorindex

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

const (
	fileMagic   = "MSVI"
	fileVersion = uint32(1)
	maxIDLength = math.MaxUint16
	headerSize  = 16
)

// MaxDimension is the largest vector length an index accepts or decodes.
const MaxDimension = 1 << 16

// ErrCorruptFile is returned when an index file cannot be decoded.
var ErrCorruptFile = errors.New("corrupt index file")

// WriteTo encodes the index as: magic, version, dim, count, then for each
// vector a uint16 id length, the id bytes and dim little-endian float32s.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	header := make([]byte, 0, 16)
	header = append(header, fileMagic...)
	header = binary.LittleEndian.AppendUint32(header, fileVersion)
	header = binary.LittleEndian.AppendUint32(header, uint32(ix.dim))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(ix.ids)))
	if _, err := cw.Write(header); err != nil {
		return cw.n, err
	}

	buf := make([]byte, ix.dim*4)
	for i, id := range ix.ids {
		if len(id) > maxIDLength {
			return cw.n, fmt.Errorf("id %q exceeds %d bytes", id, maxIDLength)
		}
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(id)))
		if _, err := cw.Write(lenBuf[:]); err != nil {
			return cw.n, err
		}
		if _, err := io.WriteString(cw, id); err != nil {
			return cw.n, err
		}
		for j, f := range ix.vectors[i] {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(f))
		}
		if _, err := cw.Write(buf); err != nil {
			return cw.n, err
		}
	}

	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Read decodes an index previously written with WriteTo.
func Read(r io.Reader) (*Index, error) {
	return read(r, -1)
}

// read decodes an index. When size is non-negative it is the total encoded
// length, and a header claiming more records than fit is rejected up front.
func read(r io.Reader, size int64) (*Index, error) {
	br := bufio.NewReader(r)

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrCorruptFile, err)
	}
	if string(header[:4]) != fileMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptFile, header[:4])
	}
	if v := binary.LittleEndian.Uint32(header[4:8]); v != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptFile, v)
	}
	dim := int(binary.LittleEndian.Uint32(header[8:12]))
	count := int(binary.LittleEndian.Uint32(header[12:16]))
	if count > 0 && dim == 0 {
		return nil, fmt.Errorf("%w: %d vectors with zero dimension", ErrCorruptFile, count)
	}
	if dim < 0 || dim > MaxDimension {
		return nil, fmt.Errorf("%w: dimension %d exceeds %d", ErrCorruptFile, dim, MaxDimension)
	}
	if size >= 0 {
		minRecord := int64(2 + dim*4)
		if int64(count) > (size-headerSize)/minRecord {
			return nil, fmt.Errorf("%w: %d records of dimension %d do not fit in %d bytes", ErrCorruptFile, count, dim, size)
		}
	}

	ix := New()
	buf := make([]byte, dim*4)
	for n := 0; n < count; n++ {
		var lenBuf [2]byte
		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorruptFile, n, err)
		}
		idBuf := make([]byte, binary.LittleEndian.Uint16(lenBuf[:]))
		if _, err := io.ReadFull(br, idBuf); err != nil {
			return nil, fmt.Errorf("%w: record %d id: %v", ErrCorruptFile, n, err)
		}
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: record %d vector: %v", ErrCorruptFile, n, err)
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		if err := ix.Insert(string(idBuf), vec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorruptFile, n, err)
		}
	}
	return ix, nil
}

// Save writes the index to path atomically through a temporary file.
func (ix *Index) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := ix.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close index file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// Load reads an index file. A missing file yields an empty index.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat index file: %w", err)
	}
	return read(f, info.Size())
}

// SizeBytes returns the raw vector payload size.
func (ix *Index) SizeBytes() int64 {
	return int64(len(ix.ids)) * int64(ix.dim) * 4
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
