package api

import (
	"github.com/gofiber/fiber/v3"
)

func SetupRoutes(app *fiber.App, h *Handler) {
	api := app.Group("/api")

	analyses := api.Group("/analyses")
	analyses.Post("/", h.CreateAnalysis)

	// The remaining routes need the run store.
	if h.dbClient != nil {
		analyses.Get("/", h.ListAnalyses)
		analyses.Get("/:id", h.GetAnalysis)
		analyses.Delete("/:id", h.DeleteAnalysis)
		analyses.Get("/:id/candidates", h.GetAnalysisCandidates)
		analyses.Get("/:id/context", h.GetAnalysisContext)
		analyses.Get("/:id/callgraph", h.GetAnalysisCallGraph)
	}
}
