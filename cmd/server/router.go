package main

import (
	"net/http"

	"github.com/draftmill/draftmill-api/internal/api"
	apimiddleware "github.com/draftmill/draftmill-api/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// newRouter builds the HTTP routing tree. Workflow endpoints accept a request,
// emit the corresponding event, and return 202; all actual work happens in the
// background task runner.
func newRouter(workflows *api.WorkflowHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	r.Get("/healthz", workflows.Health)

	r.Route("/workflows", func(r chi.Router) {
		r.Post("/brand-knowledge", workflows.StartBrandKnowledge)
		r.Post("/knowledge-distillation", workflows.StartKnowledgeDistillation)
		r.Post("/content-generation", workflows.StartContentGeneration)
		r.Get("/status", workflows.Status)
	})

	return r
}
