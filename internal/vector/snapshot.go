package vector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	snapshotMagic   = "MKVI"
	snapshotVersion = 1
	maxHeaderString = 1 << 12
)

// SnapshotMeta is the header of a snapshot file. It identifies the corpus (by count and
// fingerprint) and the model (by id and dimension) the vectors were computed from.
type SnapshotMeta struct {
	Version     int       `json:"version"`
	Dimensions  int       `json:"dimensions"`
	Count       int       `json:"count"`
	ModelID     string    `json:"model_id"`
	Fingerprint string    `json:"fingerprint"`
	BuildID     string    `json:"build_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewSnapshotMeta returns metadata for a new build with a fresh build id.
// Dimensions and Count are filled in by Save.
func NewSnapshotMeta(modelID, fingerprint string) SnapshotMeta {
	return SnapshotMeta{
		Version:     snapshotVersion,
		ModelID:     modelID,
		Fingerprint: fingerprint,
		BuildID:     uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
	}
}

// Check reports whether the snapshot matches the given corpus and model. The returned
// error wraps ErrSnapshotStale and names the first difference.
func (m SnapshotMeta) Check(count int, fingerprint string, dims int, modelID string) error {
	switch {
	case m.Count != count:
		return fmt.Errorf("%w: snapshot has %d vectors, corpus has %d passages", ErrSnapshotStale, m.Count, count)
	case m.Fingerprint != fingerprint:
		return fmt.Errorf("%w: corpus fingerprint changed", ErrSnapshotStale)
	case m.Dimensions != dims:
		return fmt.Errorf("%w: snapshot dimension %d, model dimension %d", ErrSnapshotStale, m.Dimensions, dims)
	case m.ModelID != modelID:
		return fmt.Errorf("%w: snapshot model %q, current model %q", ErrSnapshotStale, m.ModelID, modelID)
	}
	return nil
}

// ReadSnapshotMeta reads only the header of the snapshot at path.
func ReadSnapshotMeta(path string) (SnapshotMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return SnapshotMeta{}, err
	}
	defer f.Close()
	meta, _, err := readHeader(bufio.NewReader(f))
	return meta, err
}

// writeSnapshot writes header and vectors to a temporary file next to path and renames
// it into place, so readers never observe a partial snapshot.
func writeSnapshot(path string, meta SnapshotMeta, vectors [][]float32) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	if err := writeHeader(w, meta); err != nil {
		tmp.Close()
		return err
	}
	buf := make([]byte, 4*meta.Dimensions)
	for _, v := range vectors {
		for i, f := range v {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
		}
		if _, err := w.Write(buf); err != nil {
			tmp.Close()
			return fmt.Errorf("write vector: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write index file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

// readSnapshot reads a complete snapshot. The file length must match the header exactly.
func readSnapshot(path string) (SnapshotMeta, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return SnapshotMeta{}, nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return SnapshotMeta{}, nil, fmt.Errorf("stat index file: %w", err)
	}

	r := bufio.NewReader(f)
	meta, headerLen, err := readHeader(r)
	if err != nil {
		return SnapshotMeta{}, nil, err
	}
	if want := headerLen + int64(meta.Count)*int64(meta.Dimensions)*4; info.Size() != want {
		return SnapshotMeta{}, nil, fmt.Errorf("%w: file is %d bytes, header describes %d", ErrSnapshotCorrupt, info.Size(), want)
	}

	vectors := make([][]float32, meta.Count)
	buf := make([]byte, 4*meta.Dimensions)
	for i := range vectors {
		if _, err := io.ReadFull(r, buf); err != nil {
			return SnapshotMeta{}, nil, fmt.Errorf("%w: vector %d: %v", ErrSnapshotCorrupt, i, err)
		}
		v := make([]float32, meta.Dimensions)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
		}
		vectors[i] = v
	}
	return meta, vectors, nil
}

func writeHeader(w io.Writer, meta SnapshotMeta) error {
	if _, err := io.WriteString(w, snapshotMagic); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	fixed := []uint32{snapshotVersion, uint32(meta.Dimensions), uint32(meta.Count)}
	if err := binary.Write(w, binary.LittleEndian, fixed); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range []string{meta.ModelID, meta.Fingerprint, meta.BuildID} {
		if len(s) > maxHeaderString {
			return fmt.Errorf("header field too long (%d bytes)", len(s))
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if _, err := io.WriteString(w, s); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, meta.CreatedAt.UnixNano()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// readHeader parses the snapshot header and returns it with its length in bytes.
func readHeader(r io.Reader) (SnapshotMeta, int64, error) {
	corrupt := func(what string, err error) (SnapshotMeta, int64, error) {
		if err == nil {
			return SnapshotMeta{}, 0, fmt.Errorf("%w: %s", ErrSnapshotCorrupt, what)
		}
		return SnapshotMeta{}, 0, fmt.Errorf("%w: %s: %v", ErrSnapshotCorrupt, what, err)
	}

	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return corrupt("read magic", err)
	}
	if string(magic) != snapshotMagic {
		return corrupt("bad magic", nil)
	}
	var fixed [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return corrupt("read header", err)
	}
	if fixed[0] != snapshotVersion {
		return corrupt(fmt.Sprintf("unsupported version %d", fixed[0]), nil)
	}
	n := int64(len(snapshotMagic) + 12)

	var strs [3]string
	for i := range strs {
		var l uint16
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return corrupt("read header", err)
		}
		if l > maxHeaderString {
			return corrupt("header field too long", nil)
		}
		b := make([]byte, l)
		if _, err := io.ReadFull(r, b); err != nil {
			return corrupt("read header", err)
		}
		strs[i] = string(b)
		n += 2 + int64(l)
	}
	var created int64
	if err := binary.Read(r, binary.LittleEndian, &created); err != nil {
		return corrupt("read header", err)
	}
	n += 8

	meta := SnapshotMeta{
		Version:     int(fixed[0]),
		Dimensions:  int(fixed[1]),
		Count:       int(fixed[2]),
		ModelID:     strs[0],
		Fingerprint: strs[1],
		BuildID:     strs[2],
		CreatedAt:   time.Unix(0, created).UTC(),
	}
	if meta.Dimensions <= 0 && meta.Count > 0 {
		return corrupt("zero dimension", errors.New("vectors without dimension"))
	}
	return meta, n, nil
}
