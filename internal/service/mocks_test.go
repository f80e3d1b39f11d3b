package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"cpa-academy/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockUserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- MockCatalogRepository ---
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Subject), args.Error(1)
}

func (m *MockCatalogRepository) ListUnits(ctx context.Context, filter domain.UnitFilter) ([]domain.Unit, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Unit), args.Error(1)
}

func (m *MockCatalogRepository) GetUnitByID(ctx context.Context, id int64) (*domain.Unit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Unit), args.Error(1)
}

func (m *MockCatalogRepository) CreateSubject(ctx context.Context, subject *domain.Subject) error {
	args := m.Called(ctx, subject)
	return args.Error(0)
}

func (m *MockCatalogRepository) CreateUnit(ctx context.Context, unit *domain.Unit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

// --- MockQuizRepository ---
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetQuestionSetByID(ctx context.Context, id int64) (*domain.QuestionSet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuestionSet), args.Error(1)
}

func (m *MockQuizRepository) CreateQuestionSet(ctx context.Context, set *domain.QuestionSet) error {
	args := m.Called(ctx, set)
	return args.Error(0)
}

// --- MockQuizAttemptRepository ---
type MockQuizAttemptRepository struct {
	mock.Mock
}

func (m *MockQuizAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockQuizAttemptRepository) ListAttemptsByUser(ctx context.Context, userID string, limit, offset int) ([]domain.QuizAttempt, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QuizAttempt), args.Error(1)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// fakeMaterialRepository keeps materials in memory and counts downloads like
// the SQL repository does.
type fakeMaterialRepository struct {
	mu        sync.Mutex
	nextID    int64
	materials map[int64]*domain.Material

	createErr    error
	updateErr    error
	incrementErr error
}

func newFakeMaterialRepository(materials ...*domain.Material) *fakeMaterialRepository {
	r := &fakeMaterialRepository{materials: map[int64]*domain.Material{}}
	for _, m := range materials {
		copied := *m
		r.materials[m.ID] = &copied
		if m.ID > r.nextID {
			r.nextID = m.ID
		}
	}
	return r
}

// errFileNameTooLong mirrors the varchar(255) limit on materials.file_name.
var errFileNameTooLong = errors.New("value too long for type character varying(255)")

func (r *fakeMaterialRepository) CreateMaterial(ctx context.Context, material *domain.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if utf8.RuneCountInString(material.FileName) > 255 {
		return errFileNameTooLong
	}
	r.nextID++
	material.ID = r.nextID
	copied := *material
	r.materials[material.ID] = &copied
	return nil
}

func (r *fakeMaterialRepository) GetMaterialByID(ctx context.Context, id int64) (*domain.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.materials[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMaterialRepository) ListPublicMaterials(ctx context.Context, filter domain.MaterialFilter) ([]*domain.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Material
	for _, m := range r.materials {
		if m.IsPublic {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMaterialRepository) UpdateMaterialFile(ctx context.Context, material *domain.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if utf8.RuneCountInString(material.FileName) > 255 {
		return errFileNameTooLong
	}
	if _, ok := r.materials[material.ID]; !ok {
		return domain.ErrRecordNotFound
	}
	copied := *material
	r.materials[material.ID] = &copied
	return nil
}

func (r *fakeMaterialRepository) DeleteMaterial(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.materials[id]
	delete(r.materials, id)
	return ok, nil
}

func (r *fakeMaterialRepository) IncrementDownloadCount(ctx context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrementErr != nil {
		return 0, r.incrementErr
	}
	m, ok := r.materials[id]
	if !ok {
		return 0, domain.ErrRecordNotFound
	}
	m.DownloadCount++
	return m.DownloadCount, nil
}

func (r *fakeMaterialRepository) count(id int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.materials[id]; ok {
		return m.DownloadCount
	}
	return -1
}

// fakeBlobStore keeps blobs in memory. With redirect set it delivers signed
// URLs, otherwise streams.
type fakeBlobStore struct {
	mu       sync.Mutex
	name     string
	redirect bool
	blobs    map[string][]byte

	putErr     error
	deliverErr error
	deleted    []string
	closed     int
}

func newFakeBlobStore(name string, redirect bool) *fakeBlobStore {
	return &fakeBlobStore{name: name, redirect: redirect, blobs: map[string][]byte{}}
}

func (s *fakeBlobStore) Name() string { return s.name }

func (s *fakeBlobStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *fakeBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeBlobStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok
}

type trackingReadCloser struct {
	io.Reader
	store *fakeBlobStore
}

func (t *trackingReadCloser) Close() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.closed++
	return nil
}

func (s *fakeBlobStore) Deliver(ctx context.Context, key, filename, contentType string) (*domain.Delivery, error) {
	if s.deliverErr != nil {
		return nil, s.deliverErr
	}
	s.mu.Lock()
	data, ok := s.blobs[key]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	if s.redirect {
		return &domain.Delivery{URL: "https://cdn.example.com/" + key + "?X-Amz-Signature=abc", Filename: filename, ContentType: contentType}, nil
	}
	return &domain.Delivery{
		Filename:    filename,
		ContentType: contentType,
		Body:        &trackingReadCloser{Reader: bytes.NewReader(data), store: s},
		Size:        int64(len(data)),
	}, nil
}

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }
