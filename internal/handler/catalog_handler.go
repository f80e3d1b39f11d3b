package handler

import (
	"cpa-academy/internal/domain"
	"cpa-academy/internal/dto"
	"cpa-academy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves the read-only subject and unit catalog
type CatalogHandler struct {
	service service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler instance
func NewCatalogHandler(service service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListSubjects godoc
// @Summary List subjects
// @Description Returns every subject with its units
// @Tags catalog
// @Produce json
// @Success 200 {object} dto.SubjectListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /subjects [get]
func (h *CatalogHandler) ListSubjects(c *fiber.Ctx) error {
	subjects, err := h.service.ListSubjects(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.SubjectListResponse{Items: subjects})
}

// ListUnits godoc
// @Summary List units
// @Description Returns units in display order, optionally narrowed by subject or a title/code search
// @Tags catalog
// @Produce json
// @Param subject query int false "Subject ID"
// @Param search query string false "Match on title or code"
// @Success 200 {object} dto.UnitListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /subjects/units [get]
func (h *CatalogHandler) ListUnits(c *fiber.Ctx) error {
	var query dto.UnitListQuery
	if err := c.QueryParser(&query); err != nil {
		return domain.NewError(domain.ErrInvalidInput, "Invalid query parameters.", err)
	}

	units, err := h.service.ListUnits(c.UserContext(), domain.UnitFilter{SubjectID: query.Subject, Search: query.Search})
	if err != nil {
		return err
	}
	return c.JSON(dto.UnitListResponse{Items: units})
}
