package db

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/bugscope/backend/internal/models"
)

// RunWriter persists the immutable snapshot of a finished pipeline run:
// the final record on the Run node, ranked candidates, the observed call
// graph, and the context bundle text.
type RunWriter struct {
	client *Neo4jClient
}

func NewRunWriter(client *Neo4jClient) *RunWriter {
	return &RunWriter{client: client}
}

func (w *RunWriter) WriteResult(ctx context.Context, runID string, result *models.PipelineResult) error {
	if err := w.writeFinal(ctx, runID, result); err != nil {
		return fmt.Errorf("failed to write run result: %w", err)
	}
	for rank, candidate := range result.Candidates {
		if err := w.writeCandidate(ctx, runID, rank, candidate); err != nil {
			return fmt.Errorf("failed to write candidate %s: %w", candidate.Path, err)
		}
	}
	if len(result.CallGraph) > 0 {
		if err := w.writeCallGraph(ctx, runID, result.CallGraph); err != nil {
			return fmt.Errorf("failed to write call graph: %w", err)
		}
	}
	return nil
}

func (w *RunWriter) writeFinal(ctx context.Context, runID string, result *models.PipelineResult) error {
	params := map[string]any{
		"id":          runID,
		"status":      "done",
		"level":       int(result.Level),
		"finishedAt":  time.Now().UTC().UnixMilli(),
		"durationMs":  result.TotalDurationMs,
		"contextText": result.ContextText,
		"fallback":    result.ContextFallback,
	}
	query := `
		MATCH (r:Run {id: $id})
		SET r.status = $status,
		    r.level = $level,
		    r.finishedAt = $finishedAt,
		    r.durationMs = $durationMs,
		    r.contextText = $contextText,
		    r.contextFallback = $fallback
	`
	if result.Final != nil {
		query += `,
		    r.severity = $severity,
		    r.category = $category,
		    r.summary = $summary,
		    r.rootCause = $rootCause,
		    r.fixSuggestion = $fixSuggestion,
		    r.confidence = $confidence,
		    r.reviewed = $reviewed
		`
		params["severity"] = result.Final.Severity
		params["category"] = result.Final.Category
		params["summary"] = result.Final.Summary
		params["rootCause"] = result.Final.RootCause
		params["fixSuggestion"] = result.Final.FixSuggestion
		params["confidence"] = result.Final.Confidence
		params["reviewed"] = result.Final.Reviewed
	}

	_, err := w.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}

func (w *RunWriter) writeCandidate(ctx context.Context, runID string, rank int, candidate models.FileCandidate) error {
	_, err := w.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (r:Run {id: $runId})
			CREATE (c:Candidate {
				runId: $runId,
				rank: $rank,
				path: $path,
				size: $size,
				pathScore: $pathScore,
				contentScore: $contentScore,
				relevanceScore: $relevanceScore,
				matchedKeywords: $matchedKeywords
			})
			CREATE (r)-[:RANKED]->(c)
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"runId":           runID,
			"rank":            rank,
			"path":            candidate.Path,
			"size":            candidate.Size,
			"pathScore":       candidate.PathScore,
			"contentScore":    candidate.ContentScore,
			"relevanceScore":  candidate.RelevanceScore,
			"matchedKeywords": candidate.MatchedKeywords,
		})
		return nil, err
	})
	return err
}

// writeCallGraph creates the per-run function nodes first, then the CALLS
// edges among them; edges only ever reference nodes of the same run.
func (w *RunWriter) writeCallGraph(ctx context.Context, runID string, nodes []models.CallGraphNode) error {
	_, err := w.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, node := range nodes {
			query := `
				MATCH (r:Run {id: $runId})
				CREATE (f:FunctionNode {
					runId: $runId,
					name: $name,
					filePath: $filePath,
					isExported: $isExported,
					isAsync: $isAsync,
					startLine: $startLine,
					endLine: $endLine
				})
				CREATE (r)-[:OBSERVED]->(f)
			`
			if _, err := tx.Run(ctx, query, map[string]any{
				"runId":      runID,
				"name":       node.Name,
				"filePath":   node.FilePath,
				"isExported": node.IsExported,
				"isAsync":    node.IsAsync,
				"startLine":  node.StartLine,
				"endLine":    node.EndLine,
			}); err != nil {
				return nil, err
			}
		}

		for _, node := range nodes {
			for _, callee := range node.Calls {
				query := `
					MATCH (caller:FunctionNode {runId: $runId, name: $caller})
					MATCH (callee:FunctionNode {runId: $runId, name: $callee})
					MERGE (caller)-[:CALLS]->(callee)
				`
				if _, err := tx.Run(ctx, query, map[string]any{
					"runId":  runID,
					"caller": node.Name,
					"callee": callee,
				}); err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	})
	return err
}
