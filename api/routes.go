package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware, s.loggingMiddleware, securityHeaders)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metricsHandler())

	api := chi.NewRouter()
	api.Use(jsonMiddleware)

	api.Get("/auth/config", s.handleAuthConfig)
	api.Post("/auth/login", s.loginRateLimit(s.handleLogin))

	api.Group(func(pr chi.Router) {
		pr.Use(s.withSession)

		pr.Get("/auth/me", s.handleMe)
		pr.Post("/auth/logout", s.handleLogout)
		pr.Post("/auth/change-password", s.handleChangePassword)

		pr.Get("/applications", s.handleListApplications)
		pr.Get("/applications/module/{module}", s.handleApplicationsByModule)
		pr.Get("/applications/{id}", s.handleGetApplication)
		pr.Get("/applications/{id}/launch", s.handleLaunchApplication)

		pr.Get("/users", s.handleListUsers)
		pr.Get("/users/{id}", s.handleGetUser)
		pr.Get("/roles", s.handleListRoles)
		pr.Get("/templates", s.handleTemplates)
		pr.Get("/dashboard/stats", s.handleDashboardStats)

		pr.Group(func(ar chi.Router) {
			ar.Use(s.requireAdmin)

			ar.Post("/applications", s.handleCreateApplication)
			ar.Put("/applications/{id}", s.handleUpdateApplication)
			ar.Delete("/applications/{id}", s.handleDeleteApplication)
			ar.Post("/applications/{id}/sync-roles", s.handleSyncRoles)
			ar.Get("/applications/{id}/users", s.handleListExternalUsers)
			ar.Post("/applications/{id}/users", s.handleCreateExternalUser)
			ar.Post("/applications/{id}/users/{userID}/roles", s.handleAssignExternalRole)

			ar.Post("/users", s.handleCreateUser)
			ar.Put("/users/{id}", s.handleUpdateUser)

			ar.Post("/roles", s.handleCreateRole)
		})
	})

	r.Mount("/api", api)
	return r
}
