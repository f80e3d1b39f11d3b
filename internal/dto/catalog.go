package dto

import "cpa-academy/internal/domain"

// SubjectListResponse lists subjects with their units
// @Description Catalog subjects
type SubjectListResponse struct {
	Items []domain.Subject `json:"items"`
}

// UnitListResponse lists units
// @Description Catalog units
type UnitListResponse struct {
	Items []domain.Unit `json:"items"`
}

// UnitListQuery holds GET /api/subjects/units query parameters.
type UnitListQuery struct {
	Subject int64  `query:"subject"`
	Search  string `query:"search"`
}
