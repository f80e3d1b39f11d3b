package service

import (
	"context"
	"errors"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/logger"
	"cpa-academy/internal/metrics"

	"go.uber.org/zap"
)

// Download outcomes recorded in metrics.DownloadsTotal.
const (
	downloadSuccess       = "success"
	downloadUnauthorized  = "unauthorized"
	downloadForbidden     = "forbidden"
	downloadNotFound      = "not_found"
	downloadNoFile        = "no_file"
	downloadSigningFailed = "signing_failed"
	downloadError         = "error"
)

// DownloadService decides whether a requester may download a material and
// prepares the delivery.
type DownloadService interface {
	Resolve(ctx context.Context, materialID int64, requester domain.Requester) (*domain.Delivery, error)
}

type downloadService struct {
	repo  domain.MaterialRepository
	store domain.BlobStore
}

// NewDownloadService creates a DownloadService bound to the configured store.
func NewDownloadService(repo domain.MaterialRepository, store domain.BlobStore) DownloadService {
	return &downloadService{repo: repo, store: store}
}

// Resolve returns a delivery for the material's file and counts the download.
// The caller must Close the delivery once it has been sent.
func (s *downloadService) Resolve(ctx context.Context, materialID int64, requester domain.Requester) (*domain.Delivery, error) {
	delivery, result, err := s.resolve(ctx, materialID, requester)
	metrics.DownloadsTotal.WithLabelValues(s.store.Name(), result).Inc()
	return delivery, err
}

func (s *downloadService) resolve(ctx context.Context, materialID int64, requester domain.Requester) (*domain.Delivery, string, error) {
	material, err := s.repo.GetMaterialByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, downloadNotFound, domain.NewMaterialNotFoundError(materialID)
		}
		return nil, downloadError, domain.NewInternalError("Failed to load material", err)
	}

	if !material.IsPublic {
		if requester.Anonymous() {
			return nil, downloadUnauthorized, domain.NewUnauthorizedError("Authentication required to download this material.")
		}
		if !requester.CanManage(material) {
			return nil, downloadForbidden, domain.NewForbiddenError("You do not have permission to download this material.")
		}
	}

	if !material.HasFile() {
		return nil, downloadNoFile, domain.NewNoFileError()
	}

	delivery, err := s.store.Deliver(ctx, material.FileKey, material.FileName, material.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBlobNotFound):
			logger.Get().Warn("Material file missing from storage",
				zap.Int64("materialID", materialID),
				zap.String("key", material.FileKey))
			return nil, downloadNotFound, domain.NewFileNotFoundError(material.FileKey)
		case errors.Is(err, domain.ErrURLSigning):
			logger.Get().Error("Could not sign download URL",
				zap.Int64("materialID", materialID),
				zap.String("key", material.FileKey),
				zap.Error(err))
			return nil, downloadSigningFailed, domain.NewSigningFailedError(err)
		default:
			return nil, downloadError, domain.NewInternalError("Failed to prepare download", err)
		}
	}

	count, err := s.repo.IncrementDownloadCount(ctx, materialID)
	if err != nil {
		if closeErr := delivery.Close(); closeErr != nil {
			logger.Get().Warn("Failed to close delivery", zap.Error(closeErr))
		}
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, downloadNotFound, domain.NewMaterialNotFoundError(materialID)
		}
		return nil, downloadError, domain.NewInternalError("Failed to record download", err)
	}

	logger.Get().Debug("Material download resolved",
		zap.Int64("materialID", materialID),
		zap.String("backend", s.store.Name()),
		zap.Bool("redirect", delivery.Redirect()),
		zap.Int64("downloadCount", count))
	return delivery, downloadSuccess, nil
}
