package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// sqlxCatalogRepository implements domain.CatalogRepository using sqlx.
type sqlxCatalogRepository struct {
	db *sqlx.DB
}

// NewSQLXCatalogRepository creates a new instance of sqlxCatalogRepository.
func NewSQLXCatalogRepository(db *sqlx.DB) domain.CatalogRepository {
	return &sqlxCatalogRepository{db: db}
}

func toDomainUnit(u *models.Unit) domain.Unit {
	return domain.Unit{
		ID:          u.ID,
		SubjectID:   u.SubjectID,
		Title:       u.Title,
		Code:        u.Code,
		Description: u.Description,
		Order:       u.Order,
	}
}

// ListSubjects returns every subject with its units in display order.
func (r *sqlxCatalogRepository) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	exec := GetExecutor(ctx, r.db)

	var subjects []models.Subject
	if err := exec.SelectContext(ctx, &subjects, `SELECT id, name, slug FROM subjects ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	var units []models.Unit
	query := `SELECT id, subject_id, title, code, description, ord FROM units ORDER BY ord, id`
	if err := exec.SelectContext(ctx, &units, query); err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}

	bySubject := make(map[int64][]domain.Unit, len(subjects))
	for i := range units {
		bySubject[units[i].SubjectID] = append(bySubject[units[i].SubjectID], toDomainUnit(&units[i]))
	}

	result := make([]domain.Subject, 0, len(subjects))
	for _, s := range subjects {
		subjectUnits := bySubject[s.ID]
		if subjectUnits == nil {
			subjectUnits = []domain.Unit{}
		}
		result = append(result, domain.Subject{ID: s.ID, Name: s.Name, Slug: s.Slug, Units: subjectUnits})
	}
	return result, nil
}

// ListUnits returns units matching filter ordered by their display order.
func (r *sqlxCatalogRepository) ListUnits(ctx context.Context, filter domain.UnitFilter) ([]domain.Unit, error) {
	var conditions []string
	var args []interface{}

	if filter.SubjectID > 0 {
		args = append(args, filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, containsPattern(search))
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR code ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT id, subject_id, title, code, description, ord FROM units`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY ord, id"

	var rows []models.Unit
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}

	units := make([]domain.Unit, 0, len(rows))
	for i := range rows {
		units = append(units, toDomainUnit(&rows[i]))
	}
	return units, nil
}

// GetUnitByID returns domain.ErrRecordNotFound when no row matches.
func (r *sqlxCatalogRepository) GetUnitByID(ctx context.Context, id int64) (*domain.Unit, error) {
	var u models.Unit
	query := `SELECT id, subject_id, title, code, description, ord FROM units WHERE id = $1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get unit by id: %w", err)
	}
	unit := toDomainUnit(&u)
	return &unit, nil
}

// CreateSubject inserts subject, deriving the slug from the name when empty.
func (r *sqlxCatalogRepository) CreateSubject(ctx context.Context, subject *domain.Subject) error {
	if subject.Slug == "" {
		subject.Slug = domain.Slugify(subject.Name)
	}
	query := `INSERT INTO subjects (name, slug) VALUES ($1, $2) RETURNING id`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &subject.ID, query, subject.Name, subject.Slug); err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

// CreateUnit inserts unit and sets its generated ID.
func (r *sqlxCatalogRepository) CreateUnit(ctx context.Context, unit *domain.Unit) error {
	query := `INSERT INTO units (subject_id, title, code, description, ord)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := GetExecutor(ctx, r.db).GetContext(ctx, &unit.ID, query,
		unit.SubjectID, unit.Title, unit.Code, unit.Description, unit.Order)
	if err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}
