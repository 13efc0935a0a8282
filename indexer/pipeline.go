package indexer

import (
	"context"
	"math"
	"strings"
	"sync"

	"beatvault/logger"
	"beatvault/store"
	"beatvault/types"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives progress updates as batches complete. Calls are
// serialized and monotonically non-decreasing in Current; the final call
// reports Current == Total and Percentage == 100.
type ProgressFunc func(types.ScanProgress)

// Result is the outcome of one index run. FolderErrors holds non-fatal
// folder and subdirectory access failures; the record list is complete for
// everything that could be read.
type Result struct {
	Beats        []types.Beat
	FolderErrors []string

	// Scan statistics for reporting.
	Cached   int // records carried forward without re-extraction
	Fresh    int // records built by extraction this run
	Degraded int // records whose extraction failed
}

// Warning joins the collected folder errors into one message, or returns the
// empty string when the run was clean.
func (r *Result) Warning() string {
	return strings.Join(r.FolderErrors, "; ")
}

// Pipeline drives a full index run: load the prior snapshot, reconcile,
// scan folders concurrently, extract in concurrent batches, persist.
type Pipeline struct {
	store     store.Store
	scanner   FolderScanner
	builder   *Builder
	batchSize int

	// runMu serializes Run invocations so overlapping scans cannot race on
	// the final snapshot write.
	runMu sync.Mutex
}

// NewPipeline creates a pipeline. A batchSize below 1 falls back to 50.
func NewPipeline(st store.Store, scanner FolderScanner, builder *Builder, batchSize int) *Pipeline {
	if batchSize < 1 {
		batchSize = 50
	}
	return &Pipeline{
		store:     st,
		scanner:   scanner,
		builder:   builder,
		batchSize: batchSize,
	}
}

// Run indexes the given folders and persists the resulting snapshot. Folder
// and file level failures never abort the run; they are collected on the
// Result. Only cancellation (and nothing file-scoped) returns an error.
func (p *Pipeline) Run(ctx context.Context, folders []string, onProgress ProgressFunc) (*Result, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	prior := p.loadSnapshot()
	reconcile := BuildReconcileMap(prior, folders)

	type folderScan struct {
		folder string
		files  []FileEntry
	}

	var (
		scanMu sync.Mutex
		scans  []folderScan
		result = &Result{}
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, folder := range folders {
		folder := folder
		g.Go(func() error {
			files, errs := p.scanner.Scan(gctx, folder)
			scanMu.Lock()
			defer scanMu.Unlock()
			scans = append(scans, folderScan{folder: folder, files: files})
			for _, err := range errs {
				result.FolderErrors = append(result.FolderErrors, err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := 0
	for _, scan := range scans {
		total += len(scan.files)
	}

	progress := newProgressTracker(total, onProgress)
	if total == 0 {
		progress.finishEmpty()
		result.Beats = []types.Beat{}
		p.persist(result.Beats)
		return result, nil
	}

	bg, bctx := errgroup.WithContext(ctx)
	var resultMu sync.Mutex
	claimed := newPathSet(total)
	for _, scan := range scans {
		files := scan.files
		for start := 0; start < len(files); start += p.batchSize {
			end := min(start+p.batchSize, len(files))
			batch := files[start:end]
			bg.Go(func() error {
				if err := bctx.Err(); err != nil {
					return err
				}

				beats, cached, degraded := p.processBatch(batch, reconcile, claimed)

				resultMu.Lock()
				result.Beats = append(result.Beats, beats...)
				result.Cached += cached
				result.Degraded += degraded
				result.Fresh += len(beats) - cached - degraded
				resultMu.Unlock()

				progress.advance(len(batch))
				return nil
			})
		}
	}
	if err := bg.Wait(); err != nil {
		return nil, err
	}

	p.persist(result.Beats)

	if len(result.FolderErrors) > 0 {
		logger.Warn("index run finished with folder errors",
			zap.Int("errors", len(result.FolderErrors)),
			zap.String("detail", result.Warning()))
	}
	return result, nil
}

// processBatch resolves one batch of entries sequentially. Sequential
// processing inside a batch bounds the number of files buffered in memory at
// once, since every extraction reads a whole file.
func (p *Pipeline) processBatch(batch []FileEntry, reconcile map[string]*types.Beat, claimed *pathSet) (beats []types.Beat, cached, degraded int) {
	for _, entry := range batch {
		key := NormalizePath(entry.Path)

		// Overlapping roots (a folder nested inside another requested
		// folder) list the same file once per root. The first claim wins;
		// later sightings are skipped so the snapshot keeps exactly one
		// record per normalized path.
		if !claimed.claim(key) {
			continue
		}

		existing := reconcile[key]

		// A cache hit with loaded metadata skips extraction entirely.
		// Records whose extraction previously failed are retried.
		if existing != nil && existing.IsMetadataLoaded {
			beats = append(beats, carryForward(*existing, entry))
			cached++
			continue
		}

		beat := p.builder.Build(entry, existing)
		if beat == nil {
			continue
		}
		if !beat.IsMetadataLoaded {
			degraded++
		}
		beats = append(beats, *beat)
	}
	return beats, cached, degraded
}

// loadSnapshot reads the prior snapshot, degrading to an empty one on any
// load failure.
func (p *Pipeline) loadSnapshot() []types.Beat {
	var beats []types.Beat
	if _, err := p.store.Get(store.KeyBeats, &beats); err != nil {
		logger.Warn("could not load beat index, rebuilding from scratch", zap.Error(err))
		return nil
	}
	return beats
}

// persist writes the snapshot best-effort. A save failure is logged; the
// in-memory result stays authoritative for the caller.
func (p *Pipeline) persist(beats []types.Beat) {
	if err := p.store.Set(store.KeyBeats, beats); err != nil {
		logger.Error("could not stage beat index", zap.Error(err))
		return
	}
	if err := p.store.Save(); err != nil {
		logger.Error("could not save beat index", zap.Error(err))
	}
}

// pathSet tracks which normalized paths have already produced a record in
// the current run.
type pathSet struct {
	mu sync.Mutex
	m  map[string]bool
}

func newPathSet(capacity int) *pathSet {
	return &pathSet{m: make(map[string]bool, capacity)}
}

// claim marks the path as taken and reports whether this caller was first.
func (s *pathSet) claim(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m[path] {
		return false
	}
	s.m[path] = true
	return true
}

// progressTracker serializes progress callbacks so concurrent batch
// completions still observe a non-decreasing Current.
type progressTracker struct {
	mu      sync.Mutex
	current int
	total   int
	fn      ProgressFunc
}

func newProgressTracker(total int, fn ProgressFunc) *progressTracker {
	return &progressTracker{total: total, fn: fn}
}

func (t *progressTracker) advance(n int) {
	if t.fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current += n
	t.fn(types.ScanProgress{
		Current:    t.current,
		Total:      t.total,
		Percentage: int(math.Round(float64(t.current) / float64(t.total) * 100)),
	})
}

func (t *progressTracker) finishEmpty() {
	if t.fn == nil {
		return
	}
	t.fn(types.ScanProgress{Current: 0, Total: 0, Percentage: 100})
}
