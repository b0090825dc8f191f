package db

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/bugscope/backend/internal/models"
)

// RunReader answers run-detail queries: ranked candidates, the observed
// call graph, and the stored context bundle.
type RunReader struct {
	client *Neo4jClient
}

func NewRunReader(client *Neo4jClient) *RunReader {
	return &RunReader{client: client}
}

func (r *RunReader) GetCandidates(ctx context.Context, runID string) ([]models.FileCandidate, error) {
	result, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (:Run {id: $runId})-[:RANKED]->(c:Candidate)
			RETURN c.path AS path, c.size AS size, c.pathScore AS pathScore,
			       c.contentScore AS contentScore,
			       c.relevanceScore AS relevanceScore,
			       c.matchedKeywords AS matchedKeywords
			ORDER BY c.rank ASC
		`
		records, err := tx.Run(ctx, query, map[string]any{"runId": runID})
		if err != nil {
			return nil, err
		}

		var candidates []models.FileCandidate
		for records.Next(ctx) {
			rec := records.Record()
			candidate := models.FileCandidate{
				Path:           stringValue(rec, "path"),
				Size:           intValue(rec, "size"),
				PathScore:      floatValue(rec, "pathScore"),
				ContentScore:   floatValue(rec, "contentScore"),
				RelevanceScore: floatValue(rec, "relevanceScore"),
			}
			if v, ok := rec.Get("matchedKeywords"); ok && v != nil {
				if list, ok := v.([]any); ok {
					for _, item := range list {
						if s, ok := item.(string); ok {
							candidate.MatchedKeywords = append(candidate.MatchedKeywords, s)
						}
					}
				}
			}
			candidates = append(candidates, candidate)
		}
		return candidates, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.([]models.FileCandidate), nil
}

func (r *RunReader) GetCallGraph(ctx context.Context, runID string) ([]models.CallGraphNode, error) {
	result, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (:Run {id: $runId})-[:OBSERVED]->(f:FunctionNode)
			OPTIONAL MATCH (f)-[:CALLS]->(callee:FunctionNode)
			OPTIONAL MATCH (caller:FunctionNode)-[:CALLS]->(f)
			RETURN f.name AS name, f.filePath AS filePath,
			       f.isExported AS isExported, f.isAsync AS isAsync,
			       f.startLine AS startLine, f.endLine AS endLine,
			       collect(DISTINCT callee.name) AS calls,
			       collect(DISTINCT caller.name) AS calledBy
		`
		records, err := tx.Run(ctx, query, map[string]any{"runId": runID})
		if err != nil {
			return nil, err
		}

		var nodes []models.CallGraphNode
		for records.Next(ctx) {
			rec := records.Record()
			node := models.CallGraphNode{
				Name:      stringValue(rec, "name"),
				FilePath:  stringValue(rec, "filePath"),
				StartLine: int(intValue(rec, "startLine")),
				EndLine:   int(intValue(rec, "endLine")),
				Calls:     stringList(rec, "calls"),
				CalledBy:  stringList(rec, "calledBy"),
			}
			if v, ok := rec.Get("isExported"); ok {
				node.IsExported, _ = v.(bool)
			}
			if v, ok := rec.Get("isAsync"); ok {
				node.IsAsync, _ = v.(bool)
			}
			nodes = append(nodes, node)
		}
		return nodes, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read call graph: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.([]models.CallGraphNode), nil
}

func (r *RunReader) GetContext(ctx context.Context, runID string) (string, bool, error) {
	result, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (r:Run {id: $runId})
			RETURN r.contextText AS contextText, r.contextFallback AS fallback
		`
		records, err := tx.Run(ctx, query, map[string]any{"runId": runID})
		if err != nil {
			return nil, err
		}
		if records.Next(ctx) {
			rec := records.Record()
			text := stringValue(rec, "contextText")
			fallback := false
			if v, ok := rec.Get("fallback"); ok {
				fallback, _ = v.(bool)
			}
			return []any{text, fallback}, nil
		}
		return nil, nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read context: %w", err)
	}
	if result == nil {
		return "", false, nil
	}
	pair := result.([]any)
	return pair[0].(string), pair[1].(bool), nil
}

func stringValue(record *neo4j.Record, key string) string {
	if v, ok := record.Get(key); ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func intValue(record *neo4j.Record, key string) int64 {
	if v, ok := record.Get(key); ok && v != nil {
		if n, ok := v.(int64); ok {
			return n
		}
	}
	return 0
}

func floatValue(record *neo4j.Record, key string) float64 {
	if v, ok := record.Get(key); ok && v != nil {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return 0
}

func stringList(record *neo4j.Record, key string) []string {
	var out []string
	if v, ok := record.Get(key); ok && v != nil {
		if list, ok := v.([]any); ok {
			for _, item := range list {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
