package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/repository/models"
	"cpa-academy/internal/util"

	"github.com/jmoiron/sqlx"
)

const materialColumns = `m.id, m.unit_id, m.title, m.description, m.file_key, m.file_name,
	m.file_type, m.content_type, m.file_size, m.uploaded_by, m.upload_date, m.tags,
	m.is_public, m.download_count, u.title AS unit_title, u.code AS unit_code`

// sqlxMaterialRepository implements domain.MaterialRepository using sqlx.
type sqlxMaterialRepository struct {
	db *sqlx.DB
}

// NewSQLXMaterialRepository creates a new instance of sqlxMaterialRepository.
func NewSQLXMaterialRepository(db *sqlx.DB) domain.MaterialRepository {
	return &sqlxMaterialRepository{db: db}
}

func toDomainMaterial(m *models.Material) *domain.Material {
	if m == nil {
		return nil
	}
	tags := []string(m.Tags)
	if tags == nil {
		tags = []string{}
	}
	material := &domain.Material{
		ID:            m.ID,
		UnitID:        m.UnitID,
		Title:         m.Title,
		Description:   m.Description,
		FileKey:       m.FileKey,
		FileName:      m.FileName,
		FileType:      m.FileType,
		ContentType:   m.ContentType,
		FileSize:      m.FileSize,
		UploadedBy:    util.NullStringToPtr(m.UploadedBy),
		UploadDate:    m.UploadDate,
		Tags:          tags,
		IsPublic:      m.IsPublic,
		DownloadCount: m.DownloadCount,
	}
	if m.UnitTitle.Valid {
		material.Unit = &domain.UnitSummary{ID: m.UnitID, Title: m.UnitTitle.String, Code: m.UnitCode.String}
	}
	return material
}

func fromDomainMaterial(m *domain.Material) *models.Material {
	if m == nil {
		return nil
	}
	return &models.Material{
		ID:            m.ID,
		UnitID:        m.UnitID,
		Title:         m.Title,
		Description:   m.Description,
		FileKey:       m.FileKey,
		FileName:      m.FileName,
		FileType:      m.FileType,
		ContentType:   m.ContentType,
		FileSize:      m.FileSize,
		UploadedBy:    util.StringPtrToNullString(m.UploadedBy),
		UploadDate:    m.UploadDate,
		Tags:          models.StringSlice(m.Tags),
		IsPublic:      m.IsPublic,
		DownloadCount: m.DownloadCount,
	}
}

// CreateMaterial inserts the material and sets its generated ID.
func (r *sqlxMaterialRepository) CreateMaterial(ctx context.Context, material *domain.Material) error {
	m := fromDomainMaterial(material)
	query := `INSERT INTO materials (unit_id, title, description, file_key, file_name, file_type,
		content_type, file_size, uploaded_by, upload_date, tags, is_public, download_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, 0)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, r.db).GetContext(ctx, &id, query,
		m.UnitID, m.Title, m.Description, m.FileKey, m.FileName, m.FileType,
		m.ContentType, m.FileSize, m.UploadedBy, m.UploadDate, m.Tags, m.IsPublic,
	)
	if err != nil {
		return fmt.Errorf("failed to create material: %w", err)
	}
	material.ID = id
	material.DownloadCount = 0
	return nil
}

// GetMaterialByID returns domain.ErrRecordNotFound when no row matches.
func (r *sqlxMaterialRepository) GetMaterialByID(ctx context.Context, id int64) (*domain.Material, error) {
	var m models.Material
	query := `SELECT ` + materialColumns + `
		FROM materials m
		JOIN units u ON u.id = m.unit_id
		WHERE m.id = $1`

	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get material by id: %w", err)
	}
	return toDomainMaterial(&m), nil
}

// ListPublicMaterials returns public materials, most downloaded first.
func (r *sqlxMaterialRepository) ListPublicMaterials(ctx context.Context, filter domain.MaterialFilter) ([]*domain.Material, error) {
	conditions := []string{"m.is_public = TRUE"}
	args := []interface{}{}

	if filter.UnitID > 0 {
		args = append(args, filter.UnitID)
		conditions = append(conditions, fmt.Sprintf("m.unit_id = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, containsPattern(search))
		conditions = append(conditions, fmt.Sprintf("(m.title ILIKE $%d OR m.description ILIKE $%d)", len(args), len(args)))
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s
		FROM materials m
		JOIN units u ON u.id = m.unit_id
		WHERE %s
		ORDER BY m.download_count DESC, m.id DESC
		LIMIT $%d OFFSET $%d`,
		materialColumns, strings.Join(conditions, " AND "), len(args)-1, len(args))

	var rows []models.Material
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}

	materials := make([]*domain.Material, 0, len(rows))
	for i := range rows {
		materials = append(materials, toDomainMaterial(&rows[i]))
	}
	return materials, nil
}

// UpdateMaterialFile stores the blob reference fields of material.
func (r *sqlxMaterialRepository) UpdateMaterialFile(ctx context.Context, material *domain.Material) error {
	query := `UPDATE materials
		SET file_key = :file_key, file_name = :file_name, file_type = :file_type,
			content_type = :content_type, file_size = :file_size
		WHERE id = :id`

	result, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, fromDomainMaterial(material))
	if err != nil {
		return fmt.Errorf("failed to update material file: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// DeleteMaterial removes the row and reports whether one existed.
func (r *sqlxMaterialRepository) DeleteMaterial(ctx context.Context, id int64) (bool, error) {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete material: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// IncrementDownloadCount adds one in a single statement so concurrent
// downloads never lose an update.
func (r *sqlxMaterialRepository) IncrementDownloadCount(ctx context.Context, id int64) (int64, error) {
	query := `UPDATE materials SET download_count = download_count + 1 WHERE id = $1 RETURNING download_count`

	var count int64
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &count, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrRecordNotFound
		}
		return 0, fmt.Errorf("failed to increment download count: %w", err)
	}
	return count, nil
}
