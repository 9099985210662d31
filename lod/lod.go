package lod

import (
	"encoding/binary"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-heroes3/internal/cstring"
)

var (
	// ErrFormat is returned when the archive header or directory is
	// malformed.
	ErrFormat = errors.New("lod: malformed archive")

	// ErrDecompress is returned by Fetch when a compressed entry cannot be
	// inflated to exactly its declared size.
	ErrDecompress = errors.New("lod: cannot decompress entry")
)

// Signature is the magic at the start of every .lod file.
var Signature = [4]byte{'L', 'O', 'D', 0}

const (
	// DirectoryOffset is where the first directory record starts.
	DirectoryOffset = 92
	// RecordSize is the on-disk size of one directory record.
	RecordSize = 32
	// NameSize is the width of the NUL-padded name field in a record.
	NameSize = 16
)

type header struct {
	Signature [4]byte
	Type      uint32
	FileCount uint32
	Reserved  [80]byte
}

type record struct {
	Name           [NameSize]byte
	Offset         uint32
	Size           uint32
	Kind           uint32
	CompressedSize uint32
}

// Entry is one directory record.
type Entry struct {
	Name           string
	Offset         uint32
	Size           uint32 // decompressed length
	CompressedSize uint32 // 0 if stored
	Kind           Kind
}

// Compressed reports whether the entry is stored deflated.
func (e Entry) Compressed() bool {
	return e.CompressedSize > 0
}

// storedLength is the number of bytes the entry occupies in the archive.
func (e Entry) storedLength() int64 {
	if e.Compressed() {
		return int64(e.CompressedSize)
	}
	return int64(e.Size)
}

// Archive is an opened .lod file.
type Archive struct {
	r      io.ReaderAt
	closer io.Closer
	size   int64

	// Type is the archive type from the header (200 for the original
	// game, 500 for expansions).
	Type uint32

	entries []Entry
}

// Open opens the .lod file at path and parses its directory.
//
// The returned Archive keeps the file open until Close is called.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening lod")
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "stat of lod")
	}
	a, err := NewArchive(f, st.Size())
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	a.closer = f
	glog.V(1).Infof("lod: opened %s: %d entries, type %d", path, len(a.entries), a.Type)
	return a, nil
}

// NewArchive parses the directory of an archive of the given size held in
// r. The caller remains responsible for closing r.
func NewArchive(r io.ReaderAt, size int64) (*Archive, error) {
	sr := io.NewSectionReader(r, 0, size)

	var h header
	if err := binary.Read(sr, binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrapf(ErrFormat, "reading header: %v", err)
	}
	if h.Signature != Signature {
		return nil, errors.Wrapf(ErrFormat, "bad signature; got %q, want %q", h.Signature[:], Signature[:])
	}
	if int64(h.FileCount) > (size-DirectoryOffset)/RecordSize {
		return nil, errors.Wrapf(ErrFormat, "directory of %d records does not fit in %d bytes", h.FileCount, size)
	}

	records := make([]record, h.FileCount)
	if err := binary.Read(sr, binary.LittleEndian, records); err != nil {
		return nil, errors.Wrapf(ErrFormat, "reading directory: %v", err)
	}

	a := &Archive{
		r:       r,
		size:    size,
		Type:    h.Type,
		entries: make([]Entry, 0, len(records)),
	}
	for i, rec := range records {
		e := Entry{
			Name:           cstring.CString(rec.Name[:]).String(),
			Offset:         rec.Offset,
			Size:           rec.Size,
			CompressedSize: rec.CompressedSize,
			Kind:           Kind(rec.Kind),
		}
		if end := int64(e.Offset) + e.storedLength(); end > size {
			return nil, errors.Wrapf(ErrFormat, "record %d (%q) ends at %d, past end of archive (%d)", i, e.Name, end, size)
		}
		a.entries = append(a.entries, e)
	}
	return a, nil
}

// Entries returns the directory in on-disk order.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Lookup returns the first entry whose name matches, ignoring case.
func (a *Archive) Lookup(name string) (Entry, bool) {
	for _, e := range a.entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Fetch returns the decompressed contents of e.
//
// Fetch does not move any shared read position and may be called
// concurrently.
func (a *Archive) Fetch(e Entry) ([]byte, error) {
	sr := io.NewSectionReader(a.r, int64(e.Offset), e.storedLength())
	if !e.Compressed() {
		buf := make([]byte, e.Size)
		if _, err := io.ReadFull(sr, buf); err != nil {
			return nil, errors.Wrapf(err, "reading stored entry %q", e.Name)
		}
		return buf, nil
	}
	return inflate(sr, e)
}

func inflate(r io.Reader, e Entry) ([]byte, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, errors.Wrapf(ErrDecompress, "entry %q: %v", e.Name, err)
	}
	defer zr.Close()

	buf := make([]byte, e.Size)
	if n, err := io.ReadFull(zr, buf); err != nil {
		return nil, errors.Wrapf(ErrDecompress, "entry %q: got %d bytes, want %d: %v", e.Name, n, e.Size, err)
	}

	// The stream must end exactly here, and its checksum must match.
	var extra [1]byte
	n, err := io.ReadFull(zr, extra[:])
	switch {
	case n > 0:
		return nil, errors.Wrapf(ErrDecompress, "entry %q: inflates past declared size %d", e.Name, e.Size)
	case err != io.EOF:
		return nil, errors.Wrapf(ErrDecompress, "entry %q: %v", e.Name, err)
	}
	return buf, nil
}

// Close releases the underlying file, if Open created one.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
