package api

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/bugscope/backend/internal/agents"
	"github.com/bugscope/backend/internal/chunker"
	"github.com/bugscope/backend/internal/config"
	"github.com/bugscope/backend/internal/db"
	"github.com/bugscope/backend/internal/gitsvc"
	"github.com/bugscope/backend/internal/llm"
	"github.com/bugscope/backend/internal/models"
	"github.com/bugscope/backend/internal/pipeline"
)

type Handler struct {
	cfg          *config.Config
	dbClient     *db.Neo4jClient
	gitSvc       *gitsvc.Service
	orchestrator *pipeline.Orchestrator
	writer       *db.RunWriter
	reader       *db.RunReader
}

// NewHandler wires the pipeline. dbClient may be nil: runs then execute
// synchronously and nothing is persisted.
func NewHandler(cfg *config.Config, dbClient *db.Neo4jClient) *Handler {
	generator := llm.NewClient(cfg.LLMURL, cfg.LLMModel, cfg.LLMTimeout)
	extractor := chunker.New(cfg.Extractor)

	orchestrator := pipeline.NewOrchestrator(
		agents.NewFinder(extractor, generator, cfg.RerankEnabled),
		agents.NewInvestigator(generator),
		agents.NewExplainer(generator),
		agents.NewReviewer(generator),
		cfg.ReviewEnabled,
	)

	h := &Handler{
		cfg:          cfg,
		dbClient:     dbClient,
		gitSvc:       gitsvc.New(cfg.ReposPath),
		orchestrator: orchestrator,
	}
	if dbClient != nil {
		h.writer = db.NewRunWriter(dbClient)
		h.reader = db.NewRunReader(dbClient)
	}
	return h
}

// CreateAnalysis accepts a bug report and starts a pipeline run. With a run
// store the run executes in the background and the pending record is
// returned for polling; without one the result is returned inline.
func (h *Handler) CreateAnalysis(c fiber.Ctx) error {
	var req models.AnalyzeRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Title == "" && req.Body == "" {
		return c.Status(400).JSON(fiber.Map{"error": "title or body is required"})
	}
	if req.Workdir == "" && (req.Owner == "" || req.Repo == "") {
		return c.Status(400).JSON(fiber.Map{"error": "workdir or owner/repo is required"})
	}
	if req.MaxFiles <= 0 {
		req.MaxFiles = h.cfg.MaxFiles
	}

	if h.dbClient == nil {
		result, err := h.execute(c.Context(), &req)
		if err != nil {
			return c.Status(502).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(result)
	}

	run := &models.Run{
		Owner:    req.Owner,
		Repo:     req.Repo,
		IssueNum: req.IssueNumber,
		Title:    req.Title,
	}
	created, err := db.CreateRun(c.Context(), h.dbClient, run)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	go h.runAnalysis(created.ID, req)

	return c.Status(201).JSON(created)
}

// runAnalysis drives one background run, mirroring the request-scoped
// pipeline into the store as it progresses.
func (h *Handler) runAnalysis(runID string, req models.AnalyzeRequest) {
	ctx := context.Background()

	db.UpdateRunStatus(ctx, h.dbClient, runID, "running", "")

	result, err := h.execute(ctx, &req)
	if err != nil {
		log.Printf("api: run %s failed: %v", runID, err)
		db.UpdateRunStatus(ctx, h.dbClient, runID, "error", err.Error())
		return
	}

	if err := h.writer.WriteResult(ctx, runID, result); err != nil {
		log.Printf("api: run %s: persisting result failed: %v", runID, err)
		db.UpdateRunStatus(ctx, h.dbClient, runID, "error", err.Error())
	}
}

func (h *Handler) execute(ctx context.Context, req *models.AnalyzeRequest) (*models.PipelineResult, error) {
	if req.Workdir == "" {
		workdir, err := h.gitSvc.Ensure(ctx, req.Owner, req.Repo)
		if err != nil {
			return nil, err
		}
		req.Workdir = workdir
	}
	return h.orchestrator.Run(ctx, req)
}

func (h *Handler) ListAnalyses(c fiber.Ctx) error {
	runs, err := db.ListRuns(c.Context(), h.dbClient)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	return c.JSON(runs)
}

func (h *Handler) GetAnalysis(c fiber.Ctx) error {
	run, err := db.GetRun(c.Context(), h.dbClient, c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if run == nil {
		return c.Status(404).JSON(fiber.Map{"error": "run not found"})
	}
	return c.JSON(run)
}

func (h *Handler) DeleteAnalysis(c fiber.Ctx) error {
	if err := db.DeleteRun(c.Context(), h.dbClient, c.Params("id")); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(204)
}

func (h *Handler) GetAnalysisCandidates(c fiber.Ctx) error {
	candidates, err := h.reader.GetCandidates(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if candidates == nil {
		candidates = []models.FileCandidate{}
	}
	return c.JSON(candidates)
}

func (h *Handler) GetAnalysisContext(c fiber.Ctx) error {
	text, fallback, err := h.reader.GetContext(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"text": text, "fromFallback": fallback})
}

func (h *Handler) GetAnalysisCallGraph(c fiber.Ctx) error {
	nodes, err := h.reader.GetCallGraph(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if nodes == nil {
		nodes = []models.CallGraphNode{}
	}
	return c.JSON(nodes)
}
