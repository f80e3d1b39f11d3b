package domain

import (
	"context"
	"path"
	"strings"
	"time"
)

// UnknownFileType is stored when a blob key carries no usable extension.
const UnknownFileType = "unknown"

// Material is a study file registered against a catalog unit.
type Material struct {
	ID            int64
	UnitID        int64
	Unit          *UnitSummary
	Title         string
	Description   string
	FileKey       string
	FileName      string
	FileType      string
	ContentType   string
	FileSize      int64
	UploadedBy    *string
	UploadDate    time.Time
	Tags          []string
	IsPublic      bool
	DownloadCount int64
}

// HasFile reports whether a blob is attached to the material.
func (m *Material) HasFile() bool {
	return m.FileKey != ""
}

// IsOwnedBy reports whether userID uploaded the material.
func (m *Material) IsOwnedBy(userID string) bool {
	return m.UploadedBy != nil && userID != "" && *m.UploadedBy == userID
}

// FileTypeFromKey derives the file-type tag from the extension of a blob key.
func FileTypeFromKey(key string) string {
	base := path.Base(strings.ReplaceAll(key, "\\", "/"))
	idx := strings.LastIndex(base, ".")
	if idx < 0 || idx == len(base)-1 {
		return UnknownFileType
	}
	return strings.ToLower(base[idx+1:])
}

// Requester is the identity a request is made with. The zero value is anonymous.
type Requester struct {
	UserID      string
	IsStaff     bool
	IsSuperuser bool
}

// Anonymous reports whether the request carries no authenticated user.
func (r Requester) Anonymous() bool {
	return r.UserID == ""
}

// Privileged reports whether the requester may act on materials they do not own.
func (r Requester) Privileged() bool {
	return r.IsStaff || r.IsSuperuser
}

// CanManage reports whether the requester may replace or delete m.
func (r Requester) CanManage(m *Material) bool {
	return !r.Anonymous() && (r.Privileged() || m.IsOwnedBy(r.UserID))
}

// CanView reports whether m is visible to the requester.
func (r Requester) CanView(m *Material) bool {
	return m.IsPublic || r.CanManage(m)
}

// MaterialFilter narrows the public material listing.
type MaterialFilter struct {
	UnitID int64
	Search string
	Limit  int
	Offset int
}

// MaterialRepository persists material metadata.
type MaterialRepository interface {
	CreateMaterial(ctx context.Context, material *Material) error
	GetMaterialByID(ctx context.Context, id int64) (*Material, error)
	ListPublicMaterials(ctx context.Context, filter MaterialFilter) ([]*Material, error)
	UpdateMaterialFile(ctx context.Context, material *Material) error
	DeleteMaterial(ctx context.Context, id int64) (bool, error)
	// IncrementDownloadCount atomically adds one to the counter and returns the new value.
	IncrementDownloadCount(ctx context.Context, id int64) (int64, error)
}
