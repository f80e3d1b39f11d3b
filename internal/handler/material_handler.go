package handler

import (
	"mime/multipart"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/dto"
	"cpa-academy/internal/logger"
	"cpa-academy/internal/middleware"
	"cpa-academy/internal/service"
	"cpa-academy/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MaterialHandler handles material registry and download requests
type MaterialHandler struct {
	materials service.MaterialService
	downloads service.DownloadService
	validator *validation.Validator
}

// NewMaterialHandler creates a new MaterialHandler instance
func NewMaterialHandler(materials service.MaterialService, downloads service.DownloadService) *MaterialHandler {
	return &MaterialHandler{
		materials: materials,
		downloads: downloads,
		validator: validation.NewValidator(),
	}
}

// ListMaterials godoc
// @Summary List public materials
// @Description Returns public materials ordered by download count
// @Tags materials
// @Produce json
// @Param unit query int false "Unit ID"
// @Param search query string false "Case-insensitive match on title or description"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} dto.MaterialListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /materials [get]
func (h *MaterialHandler) ListMaterials(c *fiber.Ctx) error {
	var query dto.MaterialListQuery
	if err := c.QueryParser(&query); err != nil {
		return domain.NewError(domain.ErrInvalidInput, "Invalid query parameters.", err)
	}
	if query.Unit < 0 {
		return domain.NewInvalidInputError("unit must be a positive integer.")
	}

	materials, filter, err := h.materials.List(c.UserContext(), domain.MaterialFilter{
		UnitID: query.Unit,
		Search: query.Search,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		return err
	}

	items := make([]dto.MaterialResponse, 0, len(materials))
	for _, m := range materials {
		items = append(items, dto.NewMaterialResponse(m))
	}
	return c.JSON(dto.MaterialListResponse{
		Items: items,
		Pagination: dto.PaginationInfo{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Count:  len(items),
		},
	})
}

func fileInput(fh *multipart.FileHeader) (service.FileInput, multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return service.FileInput{}, nil, domain.NewError(domain.ErrInvalidInput, "Could not read the submitted file.", err)
	}
	return service.FileInput{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

func closeFile(f multipart.File) {
	if err := f.Close(); err != nil {
		logger.Get().Warn("Failed to close multipart file", zap.Error(err))
	}
}

// UploadMaterial godoc
// @Summary Upload a material
// @Description Stores the file and registers a material against a unit
// @Tags materials
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param unit_id formData int true "Unit ID"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param tags formData string false "JSON array or comma-separated tags"
// @Param is_public formData bool false "Visible to everyone (default true)"
// @Param file formData file true "Material file"
// @Success 201 {object} dto.MaterialResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /materials/upload [post]
func (h *MaterialHandler) UploadMaterial(c *fiber.Ctx) error {
	unitID, err := h.validator.ParseID("unit_id", c.FormValue("unit_id"))
	if err != nil {
		return err
	}
	title := c.FormValue("title")
	if err := h.validator.ValidateTitle(title); err != nil {
		return err
	}
	tags, err := h.validator.ParseTags(c.FormValue("tags"))
	if err != nil {
		return err
	}
	isPublic, err := h.validator.ParseBool("is_public", c.FormValue("is_public"), true)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return domain.NewError(domain.ErrInvalidInput, "No file was submitted.", err)
	}
	file, f, err := fileInput(fh)
	if err != nil {
		return err
	}
	defer closeFile(f)

	material, err := h.materials.Upload(c.UserContext(), middleware.RequesterFrom(c), service.UploadInput{
		UnitID:      unitID,
		Title:       title,
		Description: c.FormValue("description"),
		Tags:        tags,
		IsPublic:    isPublic,
		File:        file,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMaterialResponse(material))
}

// GetMaterial godoc
// @Summary Get a material
// @Description Private materials are visible only to their uploader and staff
// @Tags materials
// @Produce json
// @Param id path int true "Material ID"
// @Success 200 {object} dto.MaterialResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /materials/{id} [get]
func (h *MaterialHandler) GetMaterial(c *fiber.Ctx) error {
	material, err := h.materials.Get(c.UserContext(), middleware.ValidatedID(c), middleware.RequesterFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMaterialResponse(material))
}

// ReplaceMaterialFile godoc
// @Summary Replace a material's file
// @Description Uploads a new blob and removes the previous one
// @Tags materials
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Material ID"
// @Param file formData file true "Replacement file"
// @Success 200 {object} dto.MaterialResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /materials/{id}/file [put]
func (h *MaterialHandler) ReplaceMaterialFile(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return domain.NewError(domain.ErrInvalidInput, "No file was submitted.", err)
	}
	file, f, err := fileInput(fh)
	if err != nil {
		return err
	}
	defer closeFile(f)

	material, err := h.materials.ReplaceFile(c.UserContext(), middleware.ValidatedID(c), middleware.RequesterFrom(c), file)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMaterialResponse(material))
}

// DeleteMaterial godoc
// @Summary Delete a material
// @Description Removes the material and its file. Deleting a missing material succeeds.
// @Description A private material the caller cannot see is treated as missing: the response is 204 and nothing is deleted.
// @Tags materials
// @Security ApiKeyAuth
// @Param id path int true "Material ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /materials/{id} [delete]
func (h *MaterialHandler) DeleteMaterial(c *fiber.Ctx) error {
	if err := h.materials.Delete(c.UserContext(), middleware.ValidatedID(c), middleware.RequesterFrom(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DownloadMaterial godoc
// @Summary Download a material's file
// @Description Returns a signed link when files live in object storage, or the file itself when they live on local disk
// @Tags materials
// @Produce json
// @Produce octet-stream
// @Param id path int true "Material ID"
// @Success 200 {object} dto.DownloadResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /materials/{id}/download [get]
func (h *MaterialHandler) DownloadMaterial(c *fiber.Ctx) error {
	delivery, err := h.downloads.Resolve(c.UserContext(), middleware.ValidatedID(c), middleware.RequesterFrom(c))
	if err != nil {
		return err
	}

	if delivery.Redirect() {
		return c.JSON(dto.DownloadResponse{
			DownloadURL: delivery.URL,
			Filename:    delivery.Filename,
			ContentType: delivery.ContentType,
		})
	}

	c.Attachment(delivery.Filename)
	if delivery.ContentType != "" {
		c.Set(fiber.HeaderContentType, delivery.ContentType)
	}

	size := -1
	if delivery.Size > 0 {
		size = int(delivery.Size)
	}
	// fasthttp closes the stream after the response has been written.
	return c.SendStream(delivery.Body, size)
}
