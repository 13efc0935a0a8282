package store

// Well-known store keys. The snapshot under KeyBeats is the whole index as
// one array; KeyFolders holds the list of library roots to scan.
const (
	KeyBeats   = "beats"
	KeyFolders = "folders"
)
