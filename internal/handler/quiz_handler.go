package handler

import (
	"cpa-academy/internal/domain"
	"cpa-academy/internal/dto"
	"cpa-academy/internal/middleware"
	"cpa-academy/internal/service"
	"cpa-academy/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	service   service.QuizService
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService) *QuizHandler {
	return &QuizHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// GetQuestionSet godoc
// @Summary Get a question set
// @Description Returns the set and its ordered questions without the correct choices
// @Tags quiz
// @Produce json
// @Param id path int true "Question set ID"
// @Success 200 {object} dto.QuestionSetResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /quizzes/sets/{id} [get]
func (h *QuizHandler) GetQuestionSet(c *fiber.Ctx) error {
	set, err := h.service.GetQuestionSet(c.UserContext(), middleware.ValidatedID(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuestionSetResponse(set))
}

// SubmitAttempt godoc
// @Summary Submit a quiz attempt
// @Description Scores the answers against the question set and records the attempt
// @Tags quiz
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.SubmitAttemptRequest true "Attempt"
// @Success 201 {object} dto.QuizAttemptResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /quizzes/attempts [post]
func (h *QuizHandler) SubmitAttempt(c *fiber.Ctx) error {
	var req dto.SubmitAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewError(domain.ErrInvalidInput, "Invalid request body.", err)
	}
	if err := h.validator.ValidateSubmitAttempt(&req); err != nil {
		return err
	}

	attempt, err := h.service.SubmitAttempt(c.UserContext(), middleware.RequesterFrom(c).UserID,
		req.QuestionSet, req.ToDomainAnswers(), req.StartedAt)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewQuizAttemptResponse(attempt))
}

// ListMyAttempts godoc
// @Summary List my quiz attempts
// @Description Returns the caller's attempts, newest first
// @Tags quiz
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} dto.QuizAttemptListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /quizzes/attempts [get]
func (h *QuizHandler) ListMyAttempts(c *fiber.Ctx) error {
	var page dto.Pagination
	if err := c.QueryParser(&page); err != nil {
		return domain.NewError(domain.ErrInvalidInput, "Invalid query parameters.", err)
	}

	attempts, limit, offset, err := h.service.ListMyAttempts(c.UserContext(), middleware.RequesterFrom(c).UserID, page.Limit, page.Offset)
	if err != nil {
		return err
	}

	items := make([]dto.QuizAttemptResponse, 0, len(attempts))
	for i := range attempts {
		items = append(items, dto.NewQuizAttemptResponse(&attempts[i]))
	}
	return c.JSON(dto.QuizAttemptListResponse{
		Items:      items,
		Pagination: dto.PaginationInfo{Limit: limit, Offset: offset, Count: len(items)},
	})
}
