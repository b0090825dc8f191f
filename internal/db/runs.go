package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/bugscope/backend/internal/models"
)

// CreateRun records a pending pipeline invocation and assigns its ID.
func CreateRun(ctx context.Context, client *Neo4jClient, run *models.Run) (*models.Run, error) {
	run.ID = uuid.New().String()
	run.Status = "pending"
	run.StartedAt = time.Now().UTC().UnixMilli()

	_, err := client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			CREATE (r:Run {
				id: $id,
				owner: $owner,
				repo: $repo,
				issueNumber: $issueNumber,
				title: $title,
				status: $status,
				level: 0,
				startedAt: $startedAt
			})
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":          run.ID,
			"owner":       run.Owner,
			"repo":        run.Repo,
			"issueNumber": run.IssueNum,
			"title":       run.Title,
			"status":      run.Status,
			"startedAt":   run.StartedAt,
		})
		return nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

func GetRun(ctx context.Context, client *Neo4jClient, id string) (*models.Run, error) {
	result, err := client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (r:Run {id: $id})
			RETURN r.id AS id, r.owner AS owner, r.repo AS repo,
			       r.issueNumber AS issueNumber, r.title AS title,
			       r.status AS status, r.level AS level, r.error AS error,
			       r.startedAt AS startedAt, r.finishedAt AS finishedAt,
			       r.durationMs AS durationMs, r.severity AS severity,
			       r.category AS category, r.summary AS summary,
			       r.rootCause AS rootCause, r.fixSuggestion AS fixSuggestion,
			       r.confidence AS confidence, r.reviewed AS reviewed
		`
		records, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if records.Next(ctx) {
			return recordToRun(records.Record()), nil
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.(*models.Run), nil
}

func ListRuns(ctx context.Context, client *Neo4jClient) ([]*models.Run, error) {
	result, err := client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (r:Run)
			RETURN r.id AS id, r.owner AS owner, r.repo AS repo,
			       r.issueNumber AS issueNumber, r.title AS title,
			       r.status AS status, r.level AS level, r.error AS error,
			       r.startedAt AS startedAt, r.finishedAt AS finishedAt,
			       r.durationMs AS durationMs, r.severity AS severity,
			       r.category AS category, r.summary AS summary,
			       r.rootCause AS rootCause, r.fixSuggestion AS fixSuggestion,
			       r.confidence AS confidence, r.reviewed AS reviewed
			ORDER BY r.startedAt DESC
		`
		records, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}

		var runs []*models.Run
		for records.Next(ctx) {
			runs = append(runs, recordToRun(records.Record()))
		}
		return runs, records.Err()
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]*models.Run), nil
}

func UpdateRunStatus(ctx context.Context, client *Neo4jClient, id, status, errMsg string) error {
	_, err := client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (r:Run {id: $id})
			SET r.status = $status, r.error = $error
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":     id,
			"status": status,
			"error":  errMsg,
		})
		return nil, err
	})
	return err
}

// DeleteRun removes a run and everything hung off it.
func DeleteRun(ctx context.Context, client *Neo4jClient, id string) error {
	_, err := client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (r:Run {id: $id})
			OPTIONAL MATCH (r)-[:RANKED]->(c:Candidate)
			OPTIONAL MATCH (r)-[:OBSERVED]->(f:FunctionNode)
			DETACH DELETE c, f, r
		`
		_, err := tx.Run(ctx, query, map[string]any{"id": id})
		return nil, err
	})
	return err
}

func recordToRun(record *neo4j.Record) *models.Run {
	run := &models.Run{}

	getString := func(key string) string {
		if v, ok := record.Get(key); ok && v != nil {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(key string) int64 {
		if v, ok := record.Get(key); ok && v != nil {
			if n, ok := v.(int64); ok {
				return n
			}
		}
		return 0
	}
	getFloat := func(key string) float64 {
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

	run.ID = getString("id")
	run.Owner = getString("owner")
	run.Repo = getString("repo")
	run.IssueNum = int(getInt("issueNumber"))
	run.Title = getString("title")
	run.Status = getString("status")
	run.Level = int(getInt("level"))
	run.Error = getString("error")
	run.StartedAt = getInt("startedAt")
	run.FinishedAt = getInt("finishedAt")
	run.DurationMs = getInt("durationMs")

	if summary := getString("summary"); summary != "" {
		run.Final = &models.AnalysisRecord{
			Severity:      getString("severity"),
			Category:      getString("category"),
			Summary:       summary,
			RootCause:     getString("rootCause"),
			FixSuggestion: getString("fixSuggestion"),
			Confidence:    getFloat("confidence"),
		}
		if v, ok := record.Get("reviewed"); ok && v != nil {
			if b, ok := v.(bool); ok {
				run.Final.Reviewed = b
			}
		}
	}
	return run
}
