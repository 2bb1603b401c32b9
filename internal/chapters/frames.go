package chapters

import (
	"bytes"
	"io"
)

// ID3v2.4 chapter frames (CHAP/CTOC) with embedded sub-frames are not
// covered by the id3v2 library's built-in frame types, so they are
// encoded here. Layouts follow the ID3v2 Chapter Frame Addendum.

const (
	utf8Encoding     = 0x03
	pictureTypeCover = 0x03

	// CTOC flag bits.
	tocTopLevel = 0x01
	tocOrdered  = 0x02
)

// chapterFrame is a CHAP frame: an element ID, a time range in
// milliseconds, a TIT2 title sub-frame, and an optional APIC artwork
// sub-frame.
type chapterFrame struct {
	ElementID   string
	StartTimeMS uint32
	EndTimeMS   uint32
	Title       string
	PictureDesc string
	Picture     []byte
}

func (f chapterFrame) UniqueIdentifier() string { return f.ElementID }

func (f chapterFrame) Size() int {
	return len(f.body())
}

func (f chapterFrame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.body())
	return int64(n), err
}

func (f chapterFrame) body() []byte {
	var b bytes.Buffer
	b.WriteString(f.ElementID)
	b.WriteByte(0)
	writeUint32(&b, f.StartTimeMS)
	writeUint32(&b, f.EndTimeMS)
	// Byte offsets are unused when times are set.
	writeUint32(&b, 0xFFFFFFFF)
	writeUint32(&b, 0xFFFFFFFF)
	b.Write(encodeSubFrame("TIT2", textFrameBody(f.Title)))
	if len(f.Picture) > 0 {
		b.Write(encodeSubFrame("APIC", pictureFrameBody(f.PictureDesc, f.Picture)))
	}
	return b.Bytes()
}

// tocFrame is a CTOC frame listing the chapter element IDs in playback
// order.
type tocFrame struct {
	ElementID string
	ChildIDs  []string
	Title     string
}

func (f tocFrame) UniqueIdentifier() string { return f.ElementID }

func (f tocFrame) Size() int {
	return len(f.body())
}

func (f tocFrame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.body())
	return int64(n), err
}

func (f tocFrame) body() []byte {
	var b bytes.Buffer
	b.WriteString(f.ElementID)
	b.WriteByte(0)
	b.WriteByte(tocTopLevel | tocOrdered)
	b.WriteByte(byte(len(f.ChildIDs)))
	for _, child := range f.ChildIDs {
		b.WriteString(child)
		b.WriteByte(0)
	}
	if f.Title != "" {
		b.Write(encodeSubFrame("TIT2", textFrameBody(f.Title)))
	}
	return b.Bytes()
}

// encodeSubFrame wraps a frame body in a full ID3v2.4 frame header, the
// form chapter sub-frames take.
func encodeSubFrame(id string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(id)
	writeUint32(&b, synchsafe(uint32(len(body))))
	b.WriteByte(0) // flags
	b.WriteByte(0)
	b.Write(body)
	return b.Bytes()
}

func textFrameBody(text string) []byte {
	var b bytes.Buffer
	b.WriteByte(utf8Encoding)
	b.WriteString(text)
	return b.Bytes()
}

func pictureFrameBody(description string, data []byte) []byte {
	var b bytes.Buffer
	b.WriteByte(utf8Encoding)
	b.WriteString("image/jpeg")
	b.WriteByte(0)
	b.WriteByte(pictureTypeCover)
	b.WriteString(description)
	b.WriteByte(0)
	b.Write(data)
	return b.Bytes()
}

// synchsafe spreads a 28-bit value over four bytes of seven bits each.
func synchsafe(n uint32) uint32 {
	return (n & 0x7F) |
		((n & 0x3F80) << 1) |
		((n & 0x1FC000) << 2) |
		((n & 0xFE00000) << 3)
}

func writeUint32(b *bytes.Buffer, n uint32) {
	b.WriteByte(byte(n >> 24))
	b.WriteByte(byte(n >> 16))
	b.WriteByte(byte(n >> 8))
	b.WriteByte(byte(n))
}
