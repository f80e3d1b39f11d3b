package handler

import (
	"cpa-academy/internal/middleware"
	"cpa-academy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth     *AuthHandler
	Catalog  *CatalogHandler
	Material *MaterialHandler
	Quiz     *QuizHandler
	Health   *HealthHandler
}

// RegisterRoutes mounts the API under /api and the health check at /health.
func RegisterRoutes(app *fiber.App, h Handlers, authService service.AuthService) {
	protected := middleware.Protected(authService)
	optional := middleware.OptionalAuth(authService)
	idParam := middleware.NewValidationMiddleware().ValidateIDParam("id")

	if h.Health != nil {
		app.Get("/health", h.Health.Health)
	}

	apiGroup := app.Group("/api")

	// Auth routes
	authGroup := apiGroup.Group("/auth")
	authGroup.Post("/refresh", h.Auth.RefreshToken)

	// Catalog routes (public)
	apiGroup.Get("/subjects", h.Catalog.ListSubjects)
	apiGroup.Get("/subjects/units", h.Catalog.ListUnits)

	// Material routes
	materialGroup := apiGroup.Group("/materials")
	materialGroup.Get("/", h.Material.ListMaterials)
	materialGroup.Post("/upload", protected, h.Material.UploadMaterial)
	materialGroup.Get("/download/:id", optional, idParam, h.Material.DownloadMaterial)
	materialGroup.Get("/:id", optional, idParam, h.Material.GetMaterial)
	materialGroup.Get("/:id/download", optional, idParam, h.Material.DownloadMaterial)
	materialGroup.Put("/:id/file", protected, idParam, h.Material.ReplaceMaterialFile)
	materialGroup.Delete("/:id", protected, idParam, h.Material.DeleteMaterial)

	// Quiz routes
	quizGroup := apiGroup.Group("/quizzes")
	quizGroup.Get("/sets/:id", idParam, h.Quiz.GetQuestionSet)
	quizGroup.Post("/attempts", protected, h.Quiz.SubmitAttempt)
	quizGroup.Get("/attempts", protected, h.Quiz.ListMyAttempts)
}
