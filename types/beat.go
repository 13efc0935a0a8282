package types

// Beat represents one indexed audio file in the library.
type Beat struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Title            string `json:"title"`
	Path             string `json:"path"`
	Artist           string `json:"artist,omitempty"`
	Album            string `json:"album,omitempty"`
	Duration         string `json:"duration,omitempty"`
	BPM              int    `json:"bpm"` // 0 means not yet analyzed
	Key              string `json:"key,omitempty"`
	Format           string `json:"format"` // lowercase extension with leading dot, e.g. ".mp3"
	CoverArt         string `json:"coverArt,omitempty"`
	Size             int64  `json:"size"`
	LastModified     int64  `json:"lastModified"` // unix milliseconds
	IsMetadataLoaded bool   `json:"isMetadataLoaded"`
}

// DisplayArtist returns the artist or the unknown-artist placeholder.
func (b Beat) DisplayArtist() string {
	if b.Artist == "" {
		return UnknownArtist
	}
	return b.Artist
}

// Placeholder values used when embedded metadata is absent.
const (
	UnknownArtist   = "Unknown Artist"
	UnknownAlbum    = "Unknown Album"
	UnknownDuration = "0:00"
)
