package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"riff.app/backend/internal/auth"
)

func NewRouter(apiHandler *APIHandler, dir auth.Directory, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", apiHandler.HealthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthGate(dir))

		r.Get("/test-supabase", apiHandler.TestStoreHandler)

		r.Get("/models", apiHandler.ListModelsHandler)
		r.Post("/models", apiHandler.AddModelHandler)
		r.Delete("/models/{id}", apiHandler.DeleteModelHandler)

		r.Get("/flavors", apiHandler.ListFlavorsHandler)

		r.Get("/nodes", apiHandler.ListNodesHandler)
		r.Post("/nodes", apiHandler.CreateNodeHandler)
		r.Delete("/nodes/{nodeId}", apiHandler.DeleteNodeHandler)
		r.Get("/nodes/{nodeId}/messages", apiHandler.NodeMessagesHandler)

		r.Post("/chat/{nodeId}", apiHandler.ChatHandler)
	})

	return r
}
