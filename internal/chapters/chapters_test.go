package chapters

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"

	"setlist/internal/services"
	"setlist/internal/tracklist"
)

func TestChapterFrameBody(t *testing.T) {
	frame := chapterFrame{
		ElementID:   "chp000",
		StartTimeMS: 0,
		EndTimeMS:   270000,
		Title:       "Bicep - Glue",
	}
	body := frame.body()

	if !bytes.HasPrefix(body, []byte("chp000\x00")) {
		t.Errorf("body should start with null-terminated element id: %q", body[:10])
	}
	rest := body[len("chp000")+1:]
	if !bytes.Equal(rest[:4], []byte{0, 0, 0, 0}) {
		t.Errorf("start time = %v", rest[:4])
	}
	if !bytes.Equal(rest[4:8], []byte{0x00, 0x04, 0x1E, 0xB0}) {
		t.Errorf("end time = %v, want 270000ms big-endian", rest[4:8])
	}
	if !bytes.Equal(rest[8:12], []byte{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("start offset should be unused: %v", rest[8:12])
	}
	// TIT2 sub-frame: header then UTF-8 body.
	sub := rest[16:]
	if string(sub[:4]) != "TIT2" {
		t.Fatalf("sub-frame id = %q", sub[:4])
	}
	wantLen := 1 + len("Bicep - Glue")
	if int(sub[7]) != wantLen {
		t.Errorf("sub-frame size = %d, want %d", sub[7], wantLen)
	}
	if sub[10] != utf8Encoding {
		t.Errorf("text encoding = %d", sub[10])
	}
	if string(sub[11:]) != "Bicep - Glue" {
		t.Errorf("title = %q", sub[11:])
	}
	if frame.Size() != len(body) {
		t.Errorf("Size = %d, body = %d", frame.Size(), len(body))
	}
}

func TestChapterFrameWithArtwork(t *testing.T) {
	frame := chapterFrame{
		ElementID:   "chp001",
		Title:       "x",
		PictureDesc: "Chapter 2",
		Picture:     []byte{0xFF, 0xD8, 0xFF},
	}
	body := frame.body()
	idx := bytes.Index(body, []byte("APIC"))
	if idx < 0 {
		t.Fatal("APIC sub-frame missing")
	}
	apicBody := body[idx+10:]
	if apicBody[0] != utf8Encoding {
		t.Errorf("apic encoding = %d", apicBody[0])
	}
	if !bytes.HasPrefix(apicBody[1:], []byte("image/jpeg\x00")) {
		t.Errorf("mime = %q", apicBody[1:12])
	}
	if apicBody[12] != pictureTypeCover {
		t.Errorf("picture type = %d", apicBody[12])
	}
	if !bytes.HasSuffix(body, []byte{0xFF, 0xD8, 0xFF}) {
		t.Error("image data should end the frame")
	}
}

func TestTocFrameBody(t *testing.T) {
	frame := tocFrame{
		ElementID: "toc",
		ChildIDs:  []string{"chp000", "chp001"},
		Title:     "Table of Contents",
	}
	body := frame.body()
	if !bytes.HasPrefix(body, []byte("toc\x00")) {
		t.Errorf("body prefix = %q", body[:6])
	}
	if body[4] != tocTopLevel|tocOrdered {
		t.Errorf("flags = %#x", body[4])
	}
	if body[5] != 2 {
		t.Errorf("entry count = %d", body[5])
	}
	if !bytes.Contains(body, []byte("chp000\x00chp001\x00")) {
		t.Error("child ids missing or unterminated")
	}
	if !bytes.Contains(body, []byte("Table of Contents")) {
		t.Error("toc title sub-frame missing")
	}
}

func TestSynchsafe(t *testing.T) {
	cases := []struct{ in, want uint32 }{
		{0, 0},
		{0x7F, 0x7F},
		{0x80, 0x0100},
		{0x3FFF, 0x7F7F},
		{0x4000, 0x010000},
	}
	for _, tc := range cases {
		if got := synchsafe(tc.in); got != tc.want {
			t.Errorf("synchsafe(%#x) = %#x, want %#x", tc.in, got, tc.want)
		}
	}
}

func writeDummyMP3(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "set.mp3")
	// Tag writing only touches the ID3 header, so arbitrary audio bytes
	// are enough here.
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 64), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEmbedWritesChapters(t *testing.T) {
	path := writeDummyMP3(t)
	tracks := []tracklist.Track{
		{Timestamp: 0, Artist: "Bicep", Title: "Glue"},
		{Timestamp: 270},
		{Timestamp: 540, Artist: "Overmono", Title: "So U Kno"},
	}
	cover := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	if err := Embed(path, tracks, map[int][]byte{0: {0xFF, 0xD8}}, cover, 900000); err != nil {
		t.Fatalf("Embed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()

	chaps := tag.GetFrames("CHAP")
	if len(chaps) != 3 {
		t.Fatalf("CHAP frames = %d, want 3", len(chaps))
	}
	var sawUnknownTrack bool
	for _, framer := range chaps {
		unknown, ok := framer.(id3v2.UnknownFrame)
		if !ok {
			t.Fatalf("unexpected frame type %T", framer)
		}
		if bytes.Contains(unknown.Body, []byte("Unknown Track")) {
			sawUnknownTrack = true
		}
	}
	if !sawUnknownTrack {
		t.Error("unidentified track should be titled Unknown Track")
	}

	tocs := tag.GetFrames("CTOC")
	if len(tocs) != 1 {
		t.Fatalf("CTOC frames = %d, want 1", len(tocs))
	}

	pictures := tag.GetFrames(tag.CommonID("Attached picture"))
	if len(pictures) != 1 {
		t.Fatalf("APIC frames = %d, want 1", len(pictures))
	}
}

func TestEmbedReplacesExistingChapters(t *testing.T) {
	path := writeDummyMP3(t)
	tracks := []tracklist.Track{{Timestamp: 0, Artist: "A", Title: "B"}}
	if err := Embed(path, tracks, nil, nil, 60000); err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if err := Embed(path, tracks, nil, nil, 60000); err != nil {
		t.Fatalf("second embed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()
	if got := len(tag.GetFrames("CHAP")); got != 1 {
		t.Errorf("CHAP frames after re-embed = %d, want 1", got)
	}
	if got := len(tag.GetFrames("CTOC")); got != 1 {
		t.Errorf("CTOC frames after re-embed = %d, want 1", got)
	}
}

func TestEmbedValidation(t *testing.T) {
	path := writeDummyMP3(t)
	if err := Embed(path, nil, nil, nil, 0); !errors.Is(err, services.ErrValidation) {
		t.Errorf("empty tracks: err = %v, want ErrValidation", err)
	}
	missing := filepath.Join(t.TempDir(), "absent.mp3")
	tracks := []tracklist.Track{{Timestamp: 0}}
	if err := Embed(missing, tracks, nil, nil, 0); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("missing file: err = %v, want ErrNotFound", err)
	}
}
