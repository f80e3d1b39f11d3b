package dto

import (
	"time"

	"cpa-academy/internal/domain"
)

// MaterialResponse represents a study material in the API response
// @Description Study material metadata
type MaterialResponse struct {
	ID            int64               `json:"id"`
	Unit          int64               `json:"unit"`
	UnitDetail    *domain.UnitSummary `json:"unit_detail,omitempty"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	FileName      string              `json:"file_name"`
	FileType      string              `json:"file_type"`
	FileSize      int64               `json:"file_size"`
	HasFile       bool                `json:"has_file"`
	UploadedBy    *string             `json:"uploaded_by"`
	UploadDate    time.Time           `json:"upload_date"`
	Tags          []string            `json:"tags"`
	IsPublic      bool                `json:"is_public"`
	DownloadCount int64               `json:"download_count"`
}

// NewMaterialResponse converts a domain material for the API.
func NewMaterialResponse(m *domain.Material) MaterialResponse {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return MaterialResponse{
		ID:            m.ID,
		Unit:          m.UnitID,
		UnitDetail:    m.Unit,
		Title:         m.Title,
		Description:   m.Description,
		FileName:      m.FileName,
		FileType:      m.FileType,
		FileSize:      m.FileSize,
		HasFile:       m.HasFile(),
		UploadedBy:    m.UploadedBy,
		UploadDate:    m.UploadDate,
		Tags:          tags,
		IsPublic:      m.IsPublic,
		DownloadCount: m.DownloadCount,
	}
}

// MaterialListResponse is a page of public materials.
type MaterialListResponse struct {
	Items      []MaterialResponse `json:"items"`
	Pagination PaginationInfo     `json:"pagination"`
}

// MaterialListQuery holds GET /api/materials query parameters.
type MaterialListQuery struct {
	Unit   int64  `query:"unit"`
	Search string `query:"search"`
	Pagination
}

// DownloadResponse carries a time-limited link to the material's file.
// @Description Signed download link
type DownloadResponse struct {
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}
