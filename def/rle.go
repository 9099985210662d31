package def

import (
	"encoding/binary"
	"fmt"
)

// Compression is the pixel encoding scheme of a frame.
type Compression uint32

const (
	// CompressionRaw stores Width*Height index bytes verbatim.
	CompressionRaw Compression = 0

	// CompressionRLE stores a uint32 offset per row into the data block.
	// Each row is a sequence of (value, length-1) byte pairs: value 0xFF
	// means the next length bytes are copied verbatim, any other value is
	// repeated length times.
	CompressionRLE Compression = 1

	// CompressionPackedRows stores a uint16 offset per row. Each run is a
	// single byte: the top 3 bits select the run type (7 is a literal run,
	// 0..6 repeat that index) and the low 5 bits hold length-1.
	CompressionPackedRows Compression = 2

	// CompressionSegmented is CompressionPackedRows with one uint16 offset
	// per 32-pixel segment of each row. Used by terrain tiles.
	CompressionSegmented Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionRaw:
		return "raw"
	case CompressionRLE:
		return "rle"
	case CompressionPackedRows:
		return "packed-rows"
	case CompressionSegmented:
		return "segmented"
	}
	return fmt.Sprintf("compression(%d)", uint32(c))
}

// pixelsPerByte is the most pixels one payload byte can expand to: an RLE
// pair of two bytes covers at most 256, a packed run byte at most 32.
var pixelsPerByte = map[Compression]int{
	CompressionRaw:        1,
	CompressionRLE:        128,
	CompressionPackedRows: 32,
	CompressionSegmented:  32,
}

// decompress expands payload into exactly w*h index bytes.
//
// The frame size is checked against what the payload could possibly
// produce before anything is allocated.
func decompress(c Compression, payload []byte, w, h int) ([]byte, error) {
	if w == 0 || h == 0 {
		return []byte{}, nil
	}
	per, ok := pixelsPerByte[c]
	if !ok {
		return nil, formatErrorf("unknown compression %d", uint32(c))
	}
	if c == CompressionRaw && len(payload) != w*h {
		return nil, formatErrorf("raw payload has %d bytes, want %d", len(payload), w*h)
	}
	if int64(w)*int64(h) > int64(per)*int64(len(payload)) {
		return nil, formatErrorf("%dx%d frame cannot come from a %d byte %v payload", w, h, len(payload), c)
	}

	dst := make([]byte, w*h)
	var err error
	switch c {
	case CompressionRaw:
		copy(dst, payload)
	case CompressionRLE:
		err = decodeRLE(dst, payload, w, h)
	case CompressionPackedRows:
		err = decodePackedRows(dst, payload, w, h)
	case CompressionSegmented:
		err = decodeSegmented(dst, payload, w, h)
	}
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// rowOffset reads entry i of a little-endian offset table of the given
// width (2 or 4 bytes).
func rowOffset(payload []byte, i, width int) (int, error) {
	at := i * width
	if at+width > len(payload) {
		return 0, formatErrorf("offset table entry %d at %d outside of %d byte payload", i, at, len(payload))
	}
	if width == 2 {
		return int(binary.LittleEndian.Uint16(payload[at:])), nil
	}
	return int(binary.LittleEndian.Uint32(payload[at:])), nil
}

func decodeRLE(dst, payload []byte, w, h int) error {
	for y := 0; y < h; y++ {
		pos, err := rowOffset(payload, y, 4)
		if err != nil {
			return err
		}
		row := dst[y*w : (y+1)*w]
		if err := decodePairs(row, payload, pos); err != nil {
			return fmt.Errorf("row %d: %w", y, err)
		}
	}
	return nil
}

// decodePairs fills row from the (value, length-1) stream at payload[pos:].
func decodePairs(row, payload []byte, pos int) error {
	for x := 0; x < len(row); {
		if pos+2 > len(payload) {
			return formatErrorf("run header at %d past end of payload", pos)
		}
		value := payload[pos]
		n := int(payload[pos+1]) + 1
		pos += 2
		if x+n > len(row) {
			return formatErrorf("run of %d at x=%d overflows row of %d", n, x, len(row))
		}
		if value == 0xFF {
			if pos+n > len(payload) {
				return formatErrorf("literal run of %d at %d past end of payload", n, pos)
			}
			copy(row[x:x+n], payload[pos:pos+n])
			pos += n
		} else {
			fill(row[x:x+n], value)
		}
		x += n
	}
	return nil
}

// decodePacked fills row from the 3-bit/5-bit run stream at payload[pos:].
func decodePacked(row, payload []byte, pos int) error {
	for x := 0; x < len(row); {
		if pos >= len(payload) {
			return formatErrorf("run header at %d past end of payload", pos)
		}
		code := payload[pos] >> 5
		n := int(payload[pos]&0x1F) + 1
		pos++
		if x+n > len(row) {
			return formatErrorf("run of %d at x=%d overflows row of %d", n, x, len(row))
		}
		if code == 7 {
			if pos+n > len(payload) {
				return formatErrorf("literal run of %d at %d past end of payload", n, pos)
			}
			copy(row[x:x+n], payload[pos:pos+n])
			pos += n
		} else {
			fill(row[x:x+n], code)
		}
		x += n
	}
	return nil
}

func decodePackedRows(dst, payload []byte, w, h int) error {
	for y := 0; y < h; y++ {
		pos, err := rowOffset(payload, y, 2)
		if err != nil {
			return err
		}
		if err := decodePacked(dst[y*w:(y+1)*w], payload, pos); err != nil {
			return fmt.Errorf("row %d: %w", y, err)
		}
	}
	return nil
}

func decodeSegmented(dst, payload []byte, w, h int) error {
	if w%32 != 0 {
		return formatErrorf("segmented frame width %d is not a multiple of 32", w)
	}
	segs := w / 32
	for y := 0; y < h; y++ {
		for s := 0; s < segs; s++ {
			pos, err := rowOffset(payload, y*segs+s, 2)
			if err != nil {
				return err
			}
			start := y*w + s*32
			if err := decodePacked(dst[start:start+32], payload, pos); err != nil {
				return fmt.Errorf("row %d segment %d: %w", y, s, err)
			}
		}
	}
	return nil
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
