package agents

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/bugscope/backend/internal/callgraph"
	"github.com/bugscope/backend/internal/chunker"
	"github.com/bugscope/backend/internal/contextbundle"
	"github.com/bugscope/backend/internal/depgraph"
	"github.com/bugscope/backend/internal/discovery"
	"github.com/bugscope/backend/internal/llm"
	"github.com/bugscope/backend/internal/models"
	"github.com/bugscope/backend/internal/rerank"
)

// Finder runs retrieval: discovery, dependency expansion, optional
// model-backed re-ranking and intent merge, chunking, the level-2 call
// graph, and context assembly. Its failure is fatal to the pipeline.
type Finder struct {
	engine    *discovery.Engine
	extractor chunker.Extractor
	reranker  *rerank.Reranker
	generator llm.Generator
	builder   *contextbundle.Builder

	RerankEnabled bool
	workers       int
}

func NewFinder(extractor chunker.Extractor, generator llm.Generator, rerankEnabled bool) *Finder {
	return &Finder{
		engine:        discovery.NewEngine(),
		extractor:     extractor,
		reranker:      rerank.NewReranker(generator),
		generator:     generator,
		builder:       contextbundle.NewBuilder(),
		RerankEnabled: rerankEnabled,
		workers:       4,
	}
}

func (f *Finder) Name() string        { return "finder" }
func (f *Finder) Description() string { return "locates and bundles code relevant to the report" }

func (f *Finder) RequiredLevel() models.AnalysisLevel { return models.LevelFast }

func (f *Finder) Execute(ctx context.Context, in *Input) error {
	if _, err := os.Stat(in.Workdir); err != nil {
		return fmt.Errorf("working directory %s: %w", in.Workdir, err)
	}

	candidates, err := f.engine.Discover(ctx, discovery.Options{
		Root:           in.Workdir,
		Keywords:       in.Report.Keywords,
		ErrorLocations: in.Report.ErrorLocations,
		ErrorMessages:  in.Report.ErrorMessages,
		MaxFiles:       in.MaxFiles,
	})
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	graph := depgraph.Build(ctx, candidates)
	candidates = depgraph.Expand(candidates, graph)

	finding := &Finding{}

	if f.RerankEnabled && f.generator != nil {
		// Both enhancements are best-effort; a failed call leaves the
		// heuristic ranking as-is.
		if intent, err := rerank.InferIntent(ctx, f.generator, in.Report.Title, in.Report.Body); err == nil && intent != nil {
			finding.Intent = intent
			candidates = rerank.MergeInferred(candidates, intent.LikelyFiles, in.Workdir)
			if len(intent.Keywords) > 0 {
				if complements, err := f.engine.Discover(ctx, discovery.Options{
					Root:     in.Workdir,
					Keywords: intent.Keywords,
					MaxFiles: in.MaxFiles,
				}); err == nil {
					candidates = rerank.AddComplements(candidates, complements)
				}
			}
		}
		candidates = f.reranker.Rerank(ctx, in.Report.Title, in.Report.Body, candidates)
	}

	if len(candidates) > in.MaxFiles {
		candidates = candidates[:in.MaxFiles]
	}
	finding.Candidates = candidates
	finding.ChunksByFile = f.chunkAll(ctx, candidates)

	if in.Level == models.LevelThorough {
		finding.CallGraph = callgraph.Build(finding.ChunksByFile)
	}

	finding.Context = f.builder.Build(candidates, finding.ChunksByFile, in.Report.ErrorLocations, in.Report.Keywords)

	in.Finding = finding
	return nil
}

// chunkAll extracts chunks for each candidate on a bounded worker pool;
// files are independent, only the result map is guarded.
func (f *Finder) chunkAll(ctx context.Context, candidates []models.FileCandidate) map[string][]models.CodeChunk {
	chunksByFile := make(map[string][]models.CodeChunk, len(candidates))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, f.workers)

	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			chunks := chunker.ChunkFile(ctx, f.extractor, path)
			if len(chunks) == 0 {
				return
			}
			mu.Lock()
			chunksByFile[path] = chunks
			mu.Unlock()
		}(c.Path)
	}
	wg.Wait()

	return chunksByFile
}
