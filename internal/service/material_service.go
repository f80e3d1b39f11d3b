package service

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"cpa-academy/internal/config"
	"cpa-academy/internal/domain"
	"cpa-academy/internal/logger"
	"cpa-academy/internal/util"

	"go.uber.org/zap"
)

const (
	defaultMaterialPageSize = 20
	maxMaterialPageSize     = 100

	materialKeyPrefix = "materials/"

	// maxFileNameLength matches materials.file_name VARCHAR(255).
	maxFileNameLength = 255
)

// FileInput is an uploaded file as received from the client.
type FileInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadInput holds the fields of a new material.
type UploadInput struct {
	UnitID      int64
	Title       string
	Description string
	Tags        []string
	IsPublic    bool
	File        FileInput
}

// MaterialService manages material metadata and the blobs behind it.
type MaterialService interface {
	Upload(ctx context.Context, requester domain.Requester, in UploadInput) (*domain.Material, error)
	List(ctx context.Context, filter domain.MaterialFilter) ([]*domain.Material, domain.MaterialFilter, error)
	Get(ctx context.Context, id int64, requester domain.Requester) (*domain.Material, error)
	ReplaceFile(ctx context.Context, id int64, requester domain.Requester, file FileInput) (*domain.Material, error)
	Delete(ctx context.Context, id int64, requester domain.Requester) error
}

type materialService struct {
	repo    domain.MaterialRepository
	catalog domain.CatalogRepository
	store   domain.BlobStore
	upload  config.UploadConfig
	now     func() time.Time
}

// NewMaterialService creates a new MaterialService.
func NewMaterialService(repo domain.MaterialRepository, catalog domain.CatalogRepository, store domain.BlobStore, upload config.UploadConfig) MaterialService {
	allowed := make([]string, 0, len(upload.AllowedExtensions))
	for _, ext := range upload.AllowedExtensions {
		allowed = append(allowed, strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")))
	}
	upload.AllowedExtensions = allowed
	return &materialService{repo: repo, catalog: catalog, store: store, upload: upload, now: time.Now}
}

// validateFile checks extension and size, and returns the lower-cased extension.
func (s *materialService) validateFile(file FileInput) (string, error) {
	if file.Body == nil || file.FileName == "" {
		return "", domain.NewInvalidInputError("No file was submitted.")
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(file.FileName), "."))
	if ext == "" || !slices.Contains(s.upload.AllowedExtensions, ext) {
		return "", domain.NewUnsupportedFileTypeError(s.upload.AllowedExtensions)
	}
	if file.Size > s.upload.MaxBytes {
		return "", domain.NewFileTooLargeError(s.upload.MaxBytes)
	}
	if file.Size <= 0 {
		return "", domain.NewInvalidInputError("The submitted file is empty.")
	}
	return ext, nil
}

// storedFileName returns the base name of the client file, with the stem cut
// so the result fits maxFileNameLength characters. The extension is kept.
func storedFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if utf8.RuneCountInString(name) <= maxFileNameLength {
		return name
	}
	ext := path.Ext(name)
	stem := []rune(strings.TrimSuffix(name, ext))
	keep := maxFileNameLength - utf8.RuneCountInString(ext)
	if keep < 0 {
		keep = 0
	}
	if keep < len(stem) {
		stem = stem[:keep]
	}
	return string(stem) + ext
}

func contentTypeFor(file FileInput, ext string) string {
	if ct := strings.TrimSpace(file.ContentType); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if ct := mime.TypeByExtension("." + ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// storeFile writes file under a fresh key and returns the blob fields to
// record on the material.
func (s *materialService) storeFile(ctx context.Context, file FileInput) (*domain.Material, error) {
	ext, err := s.validateFile(file)
	if err != nil {
		return nil, err
	}

	key := materialKeyPrefix + util.NewULID() + "." + ext
	contentType := contentTypeFor(file, ext)
	if err := s.store.Put(ctx, key, file.Body, file.Size, contentType); err != nil {
		return nil, domain.NewInternalError("Failed to store file", err)
	}

	return &domain.Material{
		FileKey:     key,
		FileName:    storedFileName(file.FileName),
		FileType:    domain.FileTypeFromKey(key),
		ContentType: contentType,
		FileSize:    file.Size,
	}, nil
}

// discardBlob removes a blob that no row refers to.
func (s *materialService) discardBlob(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		logger.Get().Error("Failed to remove orphaned blob", zap.String("key", key), zap.Error(err))
	}
}

func (s *materialService) Upload(ctx context.Context, requester domain.Requester, in UploadInput) (*domain.Material, error) {
	if requester.Anonymous() {
		return nil, domain.NewUnauthorizedError("Authentication required to upload materials.")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.NewInvalidInputError("title is required.")
	}
	if in.UnitID <= 0 {
		return nil, domain.NewInvalidInputError("unit_id is required.")
	}
	if _, err := s.catalog.GetUnitByID(ctx, in.UnitID); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewUnitNotFoundError(in.UnitID)
		}
		return nil, domain.NewInternalError("Failed to load unit", err)
	}

	material, err := s.storeFile(ctx, in.File)
	if err != nil {
		return nil, err
	}

	uploader := requester.UserID
	material.UnitID = in.UnitID
	material.Title = title
	material.Description = strings.TrimSpace(in.Description)
	material.Tags = normalizeTags(in.Tags)
	material.IsPublic = in.IsPublic
	material.UploadedBy = &uploader
	material.UploadDate = s.now()

	if err := s.repo.CreateMaterial(ctx, material); err != nil {
		s.discardBlob(ctx, material.FileKey)
		return nil, domain.NewInternalError("Failed to save material", err)
	}

	logger.Get().Info("Material uploaded",
		zap.Int64("materialID", material.ID),
		zap.String("key", material.FileKey),
		zap.String("uploadedBy", uploader))
	return material, nil
}

// normalizeTags trims tags and drops empty ones.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *materialService) List(ctx context.Context, filter domain.MaterialFilter) ([]*domain.Material, domain.MaterialFilter, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultMaterialPageSize
	case filter.Limit > maxMaterialPageSize:
		filter.Limit = maxMaterialPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Search = strings.TrimSpace(filter.Search)

	materials, err := s.repo.ListPublicMaterials(ctx, filter)
	if err != nil {
		return nil, filter, domain.NewInternalError("Failed to list materials", err)
	}
	return materials, filter, nil
}

// load fetches a material the requester may see. Invisible materials are
// reported as missing.
func (s *materialService) load(ctx context.Context, id int64, requester domain.Requester) (*domain.Material, error) {
	material, err := s.repo.GetMaterialByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewMaterialNotFoundError(id)
		}
		return nil, domain.NewInternalError("Failed to load material", err)
	}
	if !requester.CanView(material) {
		return nil, domain.NewMaterialNotFoundError(id)
	}
	return material, nil
}

func (s *materialService) Get(ctx context.Context, id int64, requester domain.Requester) (*domain.Material, error) {
	return s.load(ctx, id, requester)
}

func checkManage(requester domain.Requester, material *domain.Material) error {
	if requester.Anonymous() {
		return domain.NewUnauthorizedError("Authentication required to modify this material.")
	}
	if !requester.CanManage(material) {
		return domain.NewForbiddenError("You do not have permission to modify this material.")
	}
	return nil
}

func (s *materialService) ReplaceFile(ctx context.Context, id int64, requester domain.Requester, file FileInput) (*domain.Material, error) {
	material, err := s.load(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	if err := checkManage(requester, material); err != nil {
		return nil, err
	}

	stored, err := s.storeFile(ctx, file)
	if err != nil {
		return nil, err
	}

	oldKey := material.FileKey
	material.FileKey = stored.FileKey
	material.FileName = stored.FileName
	material.FileType = stored.FileType
	material.ContentType = stored.ContentType
	material.FileSize = stored.FileSize

	if err := s.repo.UpdateMaterialFile(ctx, material); err != nil {
		s.discardBlob(ctx, stored.FileKey)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewMaterialNotFoundError(id)
		}
		return nil, domain.NewInternalError("Failed to update material file", err)
	}

	if oldKey != "" && oldKey != stored.FileKey {
		s.discardBlob(ctx, oldKey)
	}

	logger.Get().Info("Material file replaced",
		zap.Int64("materialID", id),
		zap.String("oldKey", oldKey),
		zap.String("newKey", stored.FileKey))
	return material, nil
}

func (s *materialService) Delete(ctx context.Context, id int64, requester domain.Requester) error {
	material, err := s.load(ctx, id, requester)
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == domain.ErrMaterialNotFound && !requester.Anonymous() {
			// Already gone, or never visible to this requester.
			return nil
		}
		return err
	}
	if err := checkManage(requester, material); err != nil {
		return err
	}

	if _, err := s.repo.DeleteMaterial(ctx, id); err != nil {
		return domain.NewInternalError("Failed to delete material", err)
	}
	if material.HasFile() {
		s.discardBlob(ctx, material.FileKey)
	}

	logger.Get().Info("Material deleted", zap.Int64("materialID", id), zap.String("key", material.FileKey))
	return nil
}
