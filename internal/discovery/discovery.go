package discovery

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/bugscope/backend/internal/models"
)

const (
	maxWalkDepth     = 6
	maxCandidates    = 200
	contentScoredTop = 50
	maxFileReadBytes = 256 * 1024
	workerCount      = 4
)

// DefaultExtensions is the allowlist applied when the caller supplies none.
var DefaultExtensions = []string{
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs",
	".py", ".go", ".java", ".kt", ".rb", ".vue", ".svelte",
}

// DefaultIgnoreDirs is the directory denylist applied on top of .gitignore.
var DefaultIgnoreDirs = []string{
	".git", "node_modules", "vendor", "dist", "build", "target",
	"coverage", "__pycache__", ".venv", ".next", ".cache", "out",
}

type Options struct {
	Root           string
	Keywords       []string
	ErrorLocations []models.ErrorLocation
	ErrorMessages  []string
	MaxFiles       int
	Extensions     []string
	IgnoreDirs     []string
}

// Engine walks a working tree and scores files against report signals.
// Unreadable files and directories are skipped, never fatal.
type Engine struct {
	workers int
}

func NewEngine() *Engine {
	return &Engine{workers: workerCount}
}

// Discover returns the top MaxFiles candidates ranked by
// relevanceScore = pathScore + contentScore*2, descending.
func (e *Engine) Discover(ctx context.Context, opts Options) ([]models.FileCandidate, error) {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 10
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if len(opts.IgnoreDirs) == 0 {
		opts.IgnoreDirs = DefaultIgnoreDirs
	}

	candidates := e.collect(opts)

	scorePaths(candidates, opts.Keywords)

	// Only the strongest path-ranked prefix gets the expensive content pass.
	sortByPathScore(candidates)
	limit := contentScoredTop
	if limit > len(candidates) {
		limit = len(candidates)
	}
	e.scoreContents(ctx, candidates[:limit], opts)

	for i := range candidates {
		candidates[i].RelevanceScore = candidates[i].PathScore + candidates[i].ContentScore*2
	}
	SortByRelevance(candidates)

	if len(candidates) > opts.MaxFiles {
		candidates = candidates[:opts.MaxFiles]
	}
	return candidates, nil
}

// collect walks the tree to a bounded depth and candidate count.
func (e *Engine) collect(opts Options) []models.FileCandidate {
	var candidates []models.FileCandidate

	ignorer := loadGitignore(opts.Root)
	exts := map[string]bool{}
	for _, ext := range opts.Extensions {
		exts[strings.ToLower(ext)] = true
	}
	ignoreDirs := map[string]bool{}
	for _, dir := range opts.IgnoreDirs {
		ignoreDirs[dir] = true
	}

	filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(opts.Root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator))

		if d.IsDir() {
			if ignoreDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if ignorer != nil && ignorer.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			if depth >= maxWalkDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if ignorer != nil && ignorer.MatchesPath(rel) {
			return nil
		}

		info, statErr := d.Info()
		var size int64
		if statErr == nil {
			size = info.Size()
		}
		candidates = append(candidates, models.FileCandidate{Path: path, Size: size})
		if len(candidates) >= maxCandidates {
			return filepath.SkipAll
		}
		return nil
	})

	return candidates
}

func loadGitignore(root string) *ignore.GitIgnore {
	ignorer, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignorer
}

// scoreContents runs the content pass over candidates with a bounded worker
// pool; each candidate is independent so only the slot index is shared.
func (e *Engine) scoreContents(ctx context.Context, candidates []models.FileCandidate, opts Options) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)

	for i := range candidates {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(c *models.FileCandidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			scoreContent(c, opts)
		}(&candidates[i])
	}
	wg.Wait()
}

func readCapped(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxFileReadBytes))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// SortByRelevance orders candidates by relevance descending, path ascending
// on ties so results are deterministic.
func SortByRelevance(candidates []models.FileCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RelevanceScore != candidates[j].RelevanceScore {
			return candidates[i].RelevanceScore > candidates[j].RelevanceScore
		}
		return candidates[i].Path < candidates[j].Path
	})
}

func sortByPathScore(candidates []models.FileCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].PathScore != candidates[j].PathScore {
			return candidates[i].PathScore > candidates[j].PathScore
		}
		return candidates[i].Path < candidates[j].Path
	})
}
