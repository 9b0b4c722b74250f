package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"knowledge-indexer/internal/handlers"
	"knowledge-indexer/internal/service"
	"knowledge-indexer/internal/storage"
	"knowledge-indexer/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Indexer       handlers.DocumentIndexer
	DocumentsDir  string // indexed by POST /api/index when the request names no directory
	SearchService service.SearchService
	VectorStore   vectorstore.VectorStore
	RunStore      storage.RunStore
	Embedder      handlers.Pinger // optional; nil skips the embedding health check
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Embedder)
	indexHandler := handlers.NewIndexHandler(deps.Indexer, deps.DocumentsDir)
	searchHandler := handlers.NewSearchHandler(deps.SearchService)
	collectionsHandler := handlers.NewCollectionsHandler(deps.VectorStore)
	runsHandler := handlers.NewRunsHandler(deps.RunStore)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Post("/index", indexHandler.IndexDirectory)
		r.Post("/index/document", indexHandler.IndexDocument)
		r.Method(http.MethodPost, "/search", searchHandler)

		r.Get("/collections", collectionsHandler.List)
		r.Delete("/collections/{name}", collectionsHandler.Delete)

		r.Get("/runs", runsHandler.List)
		r.Get("/runs/{id}", runsHandler.Get)
	})

	return r
}
