package metadata

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"beatvault/logger"

	"github.com/dhowden/tag"
	"go.uber.org/zap"
)

// ErrInvalidInput reports malformed extraction arguments.
var ErrInvalidInput = errors.New("file path is required for metadata extraction")

// ExtractionError wraps a read or container-parse failure. It is recoverable:
// the entry builder falls back to a degraded record instead of aborting.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract metadata from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Metadata holds the fields read from an audio container. Absent fields stay
// empty; the entry builder applies filename and placeholder fallbacks.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Duration string // "M:SS", empty when no probe understood the stream
	CoverArt string // data URI, empty when no embedded picture exists
}

// Extractor reads embedded metadata from audio files.
type Extractor interface {
	// Extract parses the file at filePath. The format is the lowercase
	// dotted extension and selects the duration probe and MIME hint.
	Extract(filePath, format string) (*Metadata, error)
}

type extractor struct{}

// NewExtractor creates the default file-backed extractor.
func NewExtractor() Extractor {
	return &extractor{}
}

// mimeTypes maps supported extensions to their container MIME type.
var mimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".aiff": "audio/aiff",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
}

// MIMEType returns the MIME type for a dotted extension, falling back to
// audio/<ext> for unrecognized extensions.
func MIMEType(format string) string {
	format = strings.ToLower(format)
	if m, ok := mimeTypes[format]; ok {
		return m
	}
	return "audio/" + strings.TrimPrefix(format, ".")
}

func (e *extractor) Extract(filePath, format string) (*Metadata, error) {
	if filePath == "" {
		return nil, ErrInvalidInput
	}

	normalized := strings.ReplaceAll(filePath, "\\", "/")
	data, err := os.ReadFile(normalized)
	if err != nil {
		return nil, &ExtractionError{Path: filePath, Err: err}
	}

	format = strings.ToLower(format)

	// Tags and duration are each best-effort. Tagless but valid containers
	// (common for WAV) still index; only a file no probe understands fails.
	m, tagErr := tag.ReadFrom(bytes.NewReader(data))
	dur, durErr := probeDuration(data, format)
	if tagErr != nil && durErr != nil {
		return nil, &ExtractionError{Path: filePath, Err: tagErr}
	}

	meta := &Metadata{}
	if tagErr == nil {
		meta.Title = m.Title()
		meta.Artist = m.Artist()
		meta.Album = m.Album()
		meta.CoverArt = coverArtDataURI(m.Picture())
	} else {
		logger.Debug("no tags found", zap.String("path", filePath), zap.Error(tagErr))
	}
	if durErr == nil {
		meta.Duration = formatDuration(dur)
	} else {
		logger.Debug("no duration probe succeeded", zap.String("path", filePath), zap.Error(durErr))
	}

	return meta, nil
}

// coverArtDataURI encodes the first embedded picture as a data URI, or
// returns an empty string when there is no usable picture.
func coverArtDataURI(p *tag.Picture) string {
	if p == nil || len(p.Data) == 0 {
		return ""
	}

	mime := p.MIMEType
	if mime == "" {
		mime = "image/" + p.Ext
	} else if !strings.HasPrefix(mime, "image/") {
		mime = "image/" + mime
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// formatDuration renders a stream duration as M:SS. Fractional seconds are
// truncated, not rounded.
func formatDuration(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
