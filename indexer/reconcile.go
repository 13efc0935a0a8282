package indexer

import (
	"beatvault/types"
)

// BuildReconcileMap maps normalized paths to previously persisted records,
// restricted to the folders of the current scan. Records under folders that
// are no longer requested are dropped from the map: they will be re-indexed
// as new discoveries if their folder ever comes back.
func BuildReconcileMap(prior []types.Beat, folders []string) map[string]*types.Beat {
	m := make(map[string]*types.Beat, len(prior))
	for i := range prior {
		beat := &prior[i]
		if InFolders(beat.Path, folders) {
			m[NormalizePath(beat.Path)] = beat
		}
	}
	return m
}

// carryForward refreshes a cached record against its live directory entry
// without re-extracting metadata. Field ownership:
//
//	id, title, artist, album, duration, format, coverArt,
//	isMetadataLoaded  — from the existing record (extraction output)
//	bpm, key          — from the existing record (user-entered)
//	name              — from the directory entry
//	size, lastModified — from the directory entry, falling back to the
//	                     cached values when the entry reports zero
func carryForward(existing types.Beat, entry FileEntry) types.Beat {
	beat := existing
	beat.Name = entry.Name
	if entry.Size > 0 {
		beat.Size = entry.Size
	}
	if entry.LastModified > 0 {
		beat.LastModified = entry.LastModified
	}
	return beat
}
