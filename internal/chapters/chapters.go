// Package chapters embeds ID3v2 chapter markers into processed MP3 files
// so podcast players can navigate between tracks.
package chapters

import (
	"fmt"
	"os"

	"github.com/bogem/id3v2/v2"

	"setlist/internal/services"
	"setlist/internal/tracklist"
)

// Embed writes CHAP/CTOC chapter frames for the given tracks into the MP3
// at path, replacing any existing chapters. images maps a track index to
// per-chapter JPEG artwork; cover, when non-empty, replaces the file-level
// attached picture. totalDurationMS bounds the final chapter.
func Embed(path string, tracks []tracklist.Track, images map[int][]byte, cover []byte, totalDurationMS int) error {
	if len(tracks) == 0 {
		return services.Wrap(services.ErrValidation, "chapters", "embed", "no tracks to embed", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return services.Wrap(services.ErrNotFound, "chapters", "embed", fmt.Sprintf("audio file %s", path), err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return services.Wrap(services.ErrTransient, "chapters", "embed", "open id3 tag", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.DeleteFrames("CHAP")
	tag.DeleteFrames("CTOC")

	childIDs := make([]string, 0, len(tracks))
	for i, track := range tracks {
		elementID := fmt.Sprintf("chp%03d", i)
		childIDs = append(childIDs, elementID)

		startMS := track.Timestamp * 1000
		endMS := totalDurationMS
		if i+1 < len(tracks) {
			endMS = tracks[i+1].Timestamp * 1000
		}

		frame := chapterFrame{
			ElementID:   elementID,
			StartTimeMS: uint32(startMS),
			EndTimeMS:   uint32(endMS),
			Title:       chapterTitle(track),
		}
		if image, ok := images[i]; ok && len(image) > 0 {
			frame.PictureDesc = fmt.Sprintf("Chapter %d", i+1)
			frame.Picture = image
		}
		tag.AddFrame("CHAP", frame)
	}

	tag.AddFrame("CTOC", tocFrame{
		ElementID: "toc",
		ChildIDs:  childIDs,
		Title:     "Table of Contents",
	})

	if len(cover) > 0 {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Episode Cover",
			Picture:     cover,
		})
	}

	if err := tag.Save(); err != nil {
		return services.Wrap(services.ErrTransient, "chapters", "embed", "save id3 tag", err)
	}
	return nil
}

// chapterTitle names a chapter after its track, or "Unknown Track" for
// unidentified stretches.
func chapterTitle(track tracklist.Track) string {
	if track.IsUnidentified() {
		return "Unknown Track"
	}
	return fmt.Sprintf("%s - %s", track.Artist, track.Title)
}
