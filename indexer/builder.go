package indexer

import (
	"strings"
	"time"

	"beatvault/logger"
	"beatvault/metadata"
	"beatvault/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SupportedFormats lists the audio extensions the index accepts.
var SupportedFormats = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".aiff": true,
	".m4a":  true,
	".ogg":  true,
}

// projectFileExt is the DAW project extension that must never be indexed
// even though project files sit next to exported audio.
const projectFileExt = ".flp"

// Builder turns raw directory entries into index records.
type Builder struct {
	extractor metadata.Extractor
}

// NewBuilder creates a builder using the given extractor.
func NewBuilder(extractor metadata.Extractor) *Builder {
	return &Builder{extractor: extractor}
}

// Build produces the index record for a directory entry, or nil when the
// entry is not indexable. It never returns an error: extraction failures
// degrade to a placeholder record so the file still appears in the library
// and can be retried later.
//
// Field ownership on the success path:
//
//	id, bpm, key       — carried from existing when present, else
//	                     fresh id / sentinel 0 / empty
//	name, path, size, lastModified — from the directory entry
//	title, artist, album, duration, coverArt — from extraction, with
//	                     filename and placeholder fallbacks
func (b *Builder) Build(entry FileEntry, existing *types.Beat) *types.Beat {
	if entry.Name == "" || strings.HasSuffix(strings.ToLower(entry.Name), projectFileExt) {
		return nil
	}
	if entry.Path == "" {
		return nil
	}

	idx := strings.LastIndex(entry.Name, ".")
	if idx < 0 {
		return nil
	}
	format := strings.ToLower(entry.Name[idx:])
	if !SupportedFormats[format] {
		return nil
	}

	beat := types.Beat{
		ID:           newID(existing),
		Name:         entry.Name,
		Path:         entry.Path,
		Format:       format,
		Size:         entry.Size,
		LastModified: entry.LastModified,
	}
	if beat.LastModified == 0 {
		beat.LastModified = time.Now().UnixMilli()
	}
	if existing != nil {
		beat.BPM = existing.BPM
		beat.Key = existing.Key
	}

	meta, err := b.extractor.Extract(entry.Path, format)
	if err != nil {
		logger.Warn("metadata extraction failed",
			zap.String("file", entry.Name),
			zap.Error(err))

		beat.Title = stripExtension(entry.Name)
		beat.Artist = types.UnknownArtist
		beat.Album = types.UnknownAlbum
		beat.Duration = types.UnknownDuration
		beat.IsMetadataLoaded = false
		return &beat
	}

	beat.Title = meta.Title
	if beat.Title == "" {
		beat.Title = stripExtension(entry.Name)
	}
	beat.Artist = meta.Artist
	if beat.Artist == "" {
		beat.Artist = types.UnknownArtist
	}
	beat.Album = meta.Album
	if beat.Album == "" {
		beat.Album = types.UnknownAlbum
	}
	beat.Duration = meta.Duration
	if beat.Duration == "" {
		beat.Duration = types.UnknownDuration
	}
	beat.CoverArt = meta.CoverArt
	beat.IsMetadataLoaded = true
	return &beat
}

// newID reuses the existing record's identifier so a path keeps its id across
// re-scans; new discoveries get a UUIDv7, which sorts by creation time.
func newID(existing *types.Beat) string {
	if existing != nil && existing.ID != "" {
		return existing.ID
	}
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func stripExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name
	}
	return name[:idx]
}
