package ttesting

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"

	"badc0de.net/pkg/go-heroes3/internal/cstring"
)

// Offsets of fields within one 32-byte LOD directory record, for tests
// that corrupt a record in place.
const (
	LODDirectoryOffset       = 92
	LODRecordSize            = 32
	LODRecordOffsetField     = 16
	LODRecordSizeField       = 20
	LODRecordKindField       = 24
	LODRecordCompressedField = 28
)

// LODEntry describes one file to place in a synthetic archive.
type LODEntry struct {
	Name     string
	Kind     uint32
	Data     []byte
	Compress bool
}

// LODBuilder assembles a .lod archive in memory.
type LODBuilder struct {
	Type    uint32
	Entries []LODEntry
}

// NewLODBuilder returns a builder for an archive of type 200.
func NewLODBuilder() *LODBuilder {
	return &LODBuilder{Type: 200}
}

// Add appends an entry and returns the builder.
func (b *LODBuilder) Add(name string, kind uint32, data []byte, compress bool) *LODBuilder {
	b.Entries = append(b.Entries, LODEntry{Name: name, Kind: kind, Data: data, Compress: compress})
	return b
}

// Bytes encodes the archive: header, directory, then every entry's stored
// bytes in order.
func (b *LODBuilder) Bytes() []byte {
	stored := make([][]byte, len(b.Entries))
	for i, e := range b.Entries {
		if e.Compress {
			stored[i] = Deflate(e.Data)
		} else {
			stored[i] = e.Data
		}
	}

	out := &bytes.Buffer{}
	out.WriteString("LOD\x00")
	binary.Write(out, binary.LittleEndian, b.Type)
	binary.Write(out, binary.LittleEndian, uint32(len(b.Entries)))
	out.Write(make([]byte, 80))

	offset := uint32(LODDirectoryOffset + LODRecordSize*len(b.Entries))
	for i, e := range b.Entries {
		out.Write(cstring.Encode(e.Name, 16))
		binary.Write(out, binary.LittleEndian, offset)
		binary.Write(out, binary.LittleEndian, uint32(len(e.Data)))
		binary.Write(out, binary.LittleEndian, e.Kind)
		var csize uint32
		if e.Compress {
			csize = uint32(len(stored[i]))
		}
		binary.Write(out, binary.LittleEndian, csize)
		offset += uint32(len(stored[i]))
	}
	for _, s := range stored {
		out.Write(s)
	}
	return out.Bytes()
}

// PutRecordField overwrites one uint32 field of directory record i.
func PutRecordField(archive []byte, i, field int, v uint32) {
	binary.LittleEndian.PutUint32(archive[LODDirectoryOffset+LODRecordSize*i+field:], v)
}

// Deflate compresses data as a zlib stream, the way the game stores
// compressed entries.
func Deflate(data []byte) []byte {
	buf := &bytes.Buffer{}
	zw := zlib.NewWriter(buf)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

// WriteTempFile writes data into a fresh temporary directory and returns
// the file's path.
func WriteTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
