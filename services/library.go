package services

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"beatvault/indexer"
	"beatvault/store"
	"beatvault/types"
)

// Library is the state layer over the persisted index: everything the UI
// reads and edits goes through here. Writes use the store's whole-array
// granularity (read the snapshot, splice, rewrite). Edits are serialized
// against each other but not against a running scan's final persist: an
// UpdateBeat that lands while Scan is writing its snapshot is last-write-wins
// and may be overwritten by the scan's result.
type Library interface {
	Beats() ([]types.Beat, error)
	Search(query, sortKey, order string) ([]types.Beat, error)
	GetBeat(id string) (*types.Beat, error)
	UpdateBeat(id string, bpm *int, key *string) (*types.Beat, error)
	ClearIndex() error
	Folders() ([]string, error)
	AddFolder(path string) ([]string, error)
	RemoveFolder(path string) ([]string, error)
	Scan(ctx context.Context, onProgress indexer.ProgressFunc) (*indexer.Result, error)
}

type library struct {
	store    store.Store
	pipeline *indexer.Pipeline
	mu       sync.Mutex // guards read-splice-rewrite cycles
}

// NewLibrary creates the library service.
func NewLibrary(st store.Store, pipeline *indexer.Pipeline) Library {
	return &library{store: st, pipeline: pipeline}
}

func (l *library) Beats() ([]types.Beat, error) {
	var beats []types.Beat
	if _, err := l.store.Get(store.KeyBeats, &beats); err != nil {
		return nil, err
	}
	if beats == nil {
		beats = []types.Beat{}
	}
	return beats, nil
}

func (l *library) Search(query, sortKey, order string) ([]types.Beat, error) {
	beats, err := l.Beats()
	if err != nil {
		return nil, err
	}

	if query != "" {
		q := strings.ToLower(query)
		filtered := beats[:0:0]
		for _, b := range beats {
			if strings.Contains(strings.ToLower(b.Title), q) ||
				strings.Contains(strings.ToLower(b.Artist), q) ||
				strings.Contains(strings.ToLower(b.Album), q) ||
				strings.Contains(strings.ToLower(b.Name), q) {
				filtered = append(filtered, b)
			}
		}
		beats = filtered
	}

	if sortKey != "" {
		sortBeats(beats, sortKey, order == "desc")
	}
	return beats, nil
}

func sortBeats(beats []types.Beat, key string, desc bool) {
	less := func(a, b types.Beat) bool { return a.Title < b.Title }
	switch key {
	case "artist":
		less = func(a, b types.Beat) bool { return a.Artist < b.Artist }
	case "album":
		less = func(a, b types.Beat) bool { return a.Album < b.Album }
	case "bpm":
		less = func(a, b types.Beat) bool { return a.BPM < b.BPM }
	case "lastModified":
		less = func(a, b types.Beat) bool { return a.LastModified < b.LastModified }
	case "duration":
		less = func(a, b types.Beat) bool { return durationSeconds(a.Duration) < durationSeconds(b.Duration) }
	}
	sort.SliceStable(beats, func(i, j int) bool {
		if desc {
			return less(beats[j], beats[i])
		}
		return less(beats[i], beats[j])
	})
}

// durationSeconds parses an "M:SS" display duration; malformed values sort
// as zero.
func durationSeconds(d string) int {
	minutes, seconds, ok := strings.Cut(d, ":")
	if !ok {
		return 0
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0
	}
	return m*60 + s
}

func (l *library) GetBeat(id string) (*types.Beat, error) {
	beats, err := l.Beats()
	if err != nil {
		return nil, err
	}
	for i := range beats {
		if beats[i].ID == id {
			return &beats[i], nil
		}
	}
	return nil, fmt.Errorf("beat %s not found", id)
}

// UpdateBeat applies a user edit. BPM and key are the only fields a user may
// overwrite directly; everything else belongs to the scan.
func (l *library) UpdateBeat(id string, bpm *int, key *string) (*types.Beat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	beats, err := l.Beats()
	if err != nil {
		return nil, err
	}

	for i := range beats {
		if beats[i].ID != id {
			continue
		}
		if bpm != nil {
			if *bpm < 0 {
				return nil, fmt.Errorf("bpm must not be negative")
			}
			beats[i].BPM = *bpm
		}
		if key != nil {
			beats[i].Key = *key
		}
		if err := l.store.Set(store.KeyBeats, beats); err != nil {
			return nil, err
		}
		if err := l.store.Save(); err != nil {
			return nil, err
		}
		return &beats[i], nil
	}
	return nil, fmt.Errorf("beat %s not found", id)
}

func (l *library) ClearIndex() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Set(store.KeyBeats, []types.Beat{}); err != nil {
		return err
	}
	return l.store.Save()
}

func (l *library) Folders() ([]string, error) {
	var folders []string
	if _, err := l.store.Get(store.KeyFolders, &folders); err != nil {
		return nil, err
	}
	if folders == nil {
		folders = []string{}
	}
	return folders, nil
}

func (l *library) AddFolder(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("folder is not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	folders, err := l.Folders()
	if err != nil {
		return nil, err
	}

	path = strings.ReplaceAll(path, "\\", "/")
	for _, existing := range folders {
		if indexer.NormalizePath(existing) == indexer.NormalizePath(path) {
			return folders, nil
		}
	}

	folders = append(folders, path)
	if err := l.store.Set(store.KeyFolders, folders); err != nil {
		return nil, err
	}
	if err := l.store.Save(); err != nil {
		return nil, err
	}
	return folders, nil
}

// RemoveFolder drops a folder from the scan roots. Its records leave the
// snapshot on the next scan, which persists only currently requested folders.
func (l *library) RemoveFolder(path string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	folders, err := l.Folders()
	if err != nil {
		return nil, err
	}

	kept := folders[:0:0]
	for _, existing := range folders {
		if indexer.NormalizePath(existing) != indexer.NormalizePath(path) {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(folders) {
		return nil, fmt.Errorf("folder %s is not in the library", path)
	}

	if err := l.store.Set(store.KeyFolders, kept); err != nil {
		return nil, err
	}
	if err := l.store.Save(); err != nil {
		return nil, err
	}
	return kept, nil
}

func (l *library) Scan(ctx context.Context, onProgress indexer.ProgressFunc) (*indexer.Result, error) {
	folders, err := l.Folders()
	if err != nil {
		return nil, err
	}
	return l.pipeline.Run(ctx, folders, onProgress)
}
