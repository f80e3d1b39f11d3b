package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/dto"
	"cpa-academy/internal/handler"
	"cpa-academy/internal/middleware"
	"cpa-academy/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// --- Manual Mocks ---

const (
	userToken  = "user-token"
	staffToken = "staff-token"
	userID     = "01HUSER00000000000000000000"
	staffID    = "01HSTAFF0000000000000000000"
)

// MockAuthService accepts userToken and staffToken as access tokens.
type MockAuthService struct {
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (string, string, error)
}

func (m *MockAuthService) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	switch tokenString {
	case userToken:
		return &dto.AuthClaims{UserID: userID, TokenType: dto.TokenTypeAccess}, nil
	case staffToken:
		return &dto.AuthClaims{UserID: staffID, TokenType: dto.TokenTypeAccess, IsStaff: true}, nil
	}
	return nil, service.ErrInvalidJWTToken
}

func (m *MockAuthService) CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error) {
	panic("MockAuthService.CreateJWT not implemented")
}

func (m *MockAuthService) IssueTokenPair(ctx context.Context, user *domain.User) (string, string, error) {
	panic("MockAuthService.IssueTokenPair not implemented")
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	panic("MockAuthService.RefreshTokenFunc not implemented")
}

// MockMaterialService
type MockMaterialService struct {
	UploadFunc      func(ctx context.Context, requester domain.Requester, in service.UploadInput) (*domain.Material, error)
	ListFunc        func(ctx context.Context, filter domain.MaterialFilter) ([]*domain.Material, domain.MaterialFilter, error)
	GetFunc         func(ctx context.Context, id int64, requester domain.Requester) (*domain.Material, error)
	ReplaceFileFunc func(ctx context.Context, id int64, requester domain.Requester, file service.FileInput) (*domain.Material, error)
	DeleteFunc      func(ctx context.Context, id int64, requester domain.Requester) error
}

func (m *MockMaterialService) Upload(ctx context.Context, requester domain.Requester, in service.UploadInput) (*domain.Material, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, requester, in)
	}
	panic("MockMaterialService.UploadFunc not implemented")
}

func (m *MockMaterialService) List(ctx context.Context, filter domain.MaterialFilter) ([]*domain.Material, domain.MaterialFilter, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	panic("MockMaterialService.ListFunc not implemented")
}

func (m *MockMaterialService) Get(ctx context.Context, id int64, requester domain.Requester) (*domain.Material, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id, requester)
	}
	panic("MockMaterialService.GetFunc not implemented")
}

func (m *MockMaterialService) ReplaceFile(ctx context.Context, id int64, requester domain.Requester, file service.FileInput) (*domain.Material, error) {
	if m.ReplaceFileFunc != nil {
		return m.ReplaceFileFunc(ctx, id, requester, file)
	}
	panic("MockMaterialService.ReplaceFileFunc not implemented")
}

func (m *MockMaterialService) Delete(ctx context.Context, id int64, requester domain.Requester) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, requester)
	}
	panic("MockMaterialService.DeleteFunc not implemented")
}

// MockDownloadService
type MockDownloadService struct {
	ResolveFunc func(ctx context.Context, materialID int64, requester domain.Requester) (*domain.Delivery, error)
}

func (m *MockDownloadService) Resolve(ctx context.Context, materialID int64, requester domain.Requester) (*domain.Delivery, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, materialID, requester)
	}
	panic("MockDownloadService.ResolveFunc not implemented")
}

// MockQuizService
type MockQuizService struct {
	GetQuestionSetFunc func(ctx context.Context, id int64) (*domain.QuestionSet, error)
	SubmitAttemptFunc  func(ctx context.Context, userID string, questionSetID int64, answers []domain.SubmittedAnswer, startedAt *time.Time) (*domain.QuizAttempt, error)
	ListMyAttemptsFunc func(ctx context.Context, userID string, limit, offset int) ([]domain.QuizAttempt, int, int, error)
}

func (m *MockQuizService) GetQuestionSet(ctx context.Context, id int64) (*domain.QuestionSet, error) {
	if m.GetQuestionSetFunc != nil {
		return m.GetQuestionSetFunc(ctx, id)
	}
	panic("MockQuizService.GetQuestionSetFunc not implemented")
}

func (m *MockQuizService) SubmitAttempt(ctx context.Context, userID string, questionSetID int64, answers []domain.SubmittedAnswer, startedAt *time.Time) (*domain.QuizAttempt, error) {
	if m.SubmitAttemptFunc != nil {
		return m.SubmitAttemptFunc(ctx, userID, questionSetID, answers, startedAt)
	}
	panic("MockQuizService.SubmitAttemptFunc not implemented")
}

func (m *MockQuizService) ListMyAttempts(ctx context.Context, userID string, limit, offset int) ([]domain.QuizAttempt, int, int, error) {
	if m.ListMyAttemptsFunc != nil {
		return m.ListMyAttemptsFunc(ctx, userID, limit, offset)
	}
	panic("MockQuizService.ListMyAttemptsFunc not implemented")
}

// MockCatalogService
type MockCatalogService struct {
	ListSubjectsFunc func(ctx context.Context) ([]domain.Subject, error)
	ListUnitsFunc    func(ctx context.Context, filter domain.UnitFilter) ([]domain.Unit, error)
}

func (m *MockCatalogService) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	if m.ListSubjectsFunc != nil {
		return m.ListSubjectsFunc(ctx)
	}
	panic("MockCatalogService.ListSubjectsFunc not implemented")
}

func (m *MockCatalogService) ListUnits(ctx context.Context, filter domain.UnitFilter) ([]domain.Unit, error) {
	if m.ListUnitsFunc != nil {
		return m.ListUnitsFunc(ctx, filter)
	}
	panic("MockCatalogService.ListUnitsFunc not implemented")
}

// memMaterialRepository backs the real download service in end-to-end tests.
type memMaterialRepository struct {
	mu        sync.Mutex
	materials map[int64]*domain.Material
}

func newMemMaterialRepository(materials ...*domain.Material) *memMaterialRepository {
	r := &memMaterialRepository{materials: make(map[int64]*domain.Material)}
	for _, m := range materials {
		r.materials[m.ID] = m
	}
	return r
}

func (r *memMaterialRepository) CreateMaterial(ctx context.Context, material *domain.Material) error {
	return errors.New("not supported")
}

func (r *memMaterialRepository) GetMaterialByID(ctx context.Context, id int64) (*domain.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.materials[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMaterialRepository) ListPublicMaterials(ctx context.Context, filter domain.MaterialFilter) ([]*domain.Material, error) {
	return nil, errors.New("not supported")
}

func (r *memMaterialRepository) UpdateMaterialFile(ctx context.Context, material *domain.Material) error {
	return errors.New("not supported")
}

func (r *memMaterialRepository) DeleteMaterial(ctx context.Context, id int64) (bool, error) {
	return false, errors.New("not supported")
}

func (r *memMaterialRepository) IncrementDownloadCount(ctx context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.materials[id]
	if !ok {
		return 0, domain.ErrRecordNotFound
	}
	m.DownloadCount++
	return m.DownloadCount, nil
}

func (r *memMaterialRepository) count(id int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.materials[id].DownloadCount
}

// --- Helpers ---

type testServices struct {
	auth      *MockAuthService
	materials service.MaterialService
	downloads service.DownloadService
	quiz      service.QuizService
	catalog   service.CatalogService
	health    map[string]handler.PingFunc
}

func newTestApp(s testServices) *fiber.App {
	if s.auth == nil {
		s.auth = &MockAuthService{}
	}
	if s.materials == nil {
		s.materials = &MockMaterialService{}
	}
	if s.downloads == nil {
		s.downloads = &MockDownloadService{}
	}
	if s.quiz == nil {
		s.quiz = &MockQuizService{}
	}
	if s.catalog == nil {
		s.catalog = &MockCatalogService{}
	}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	handler.RegisterRoutes(app, handler.Handlers{
		Auth:     handler.NewAuthHandler(s.auth),
		Catalog:  handler.NewCatalogHandler(s.catalog),
		Material: handler.NewMaterialHandler(s.materials, s.downloads),
		Quiz:     handler.NewQuizHandler(s.quiz),
		Health:   handler.NewHealthHandler(s.health),
	}, s.auth)
	return app
}

func decodeJSON(t *testing.T, body io.Reader, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(v))
}

func bearer(token string) string {
	return middleware.BearerSchema + token
}
