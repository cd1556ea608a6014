package flat

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Binary layout, little endian:
//
//	magic "SVIX" | version u32 | dimensions u32 | count u32
//	count × ( idLen u32 | id bytes | dimensions × f32 )
const (
	magic         = "SVIX"
	formatVersion = uint32(1)
	maxIDLength   = 1 << 16
	maxDimensions = 1 << 14
)

// ErrBadFormat is returned when persisted index data cannot be decoded.
var ErrBadFormat = errors.New("flat: bad index format")

// WriteTo encodes the index to w.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	header := []uint32{formatVersion, uint32(idx.dimensions), uint32(len(idx.ids))}
	if _, err := bw.WriteString(magic); err != nil {
		return cw.n, err
	}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return cw.n, err
	}
	for i, id := range idx.ids {
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(id))); err != nil {
			return cw.n, err
		}
		if _, err := bw.WriteString(id); err != nil {
			return cw.n, err
		}
		if err := binary.Write(bw, binary.LittleEndian, idx.vectors[i]); err != nil {
			return cw.n, err
		}
	}
	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// ReadFrom decodes an index from r.
func ReadFrom(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(br, head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFormat, err)
	}
	if string(head) != magic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadFormat, head)
	}

	var header [3]uint32
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrBadFormat, err)
	}
	if header[0] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadFormat, header[0])
	}

	if header[1] == 0 || header[1] > maxDimensions {
		return nil, fmt.Errorf("%w: dimensions %d", ErrBadFormat, header[1])
	}

	idx := New(int(header[1]))
	count := int(header[2])
	for i := 0; i < count; i++ {
		var idLen uint32
		if err := binary.Read(br, binary.LittleEndian, &idLen); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrBadFormat, i, err)
		}
		if idLen == 0 || idLen > maxIDLength {
			return nil, fmt.Errorf("%w: entry %d: id length %d", ErrBadFormat, i, idLen)
		}
		id := make([]byte, idLen)
		if _, err := io.ReadFull(br, id); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrBadFormat, i, err)
		}
		vec := make([]float32, idx.dimensions)
		if err := binary.Read(br, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrBadFormat, i, err)
		}
		if _, dup := idx.positions[string(id)]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrBadFormat, id)
		}
		idx.positions[string(id)] = len(idx.ids)
		idx.ids = append(idx.ids, string(id))
		idx.vectors = append(idx.vectors, vec)
	}
	return idx, nil
}

// Save writes the index to path through a temporary file renamed over the target.
func (idx *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("flat: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("flat: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Already renamed on success.

	if _, err := idx.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flat: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flat: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("flat: rename: %w", err)
	}
	return nil
}

// Load reads an index previously written by Save.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("flat: open: %w", err)
	}
	defer f.Close()
	return ReadFrom(f)
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
