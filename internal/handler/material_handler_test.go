package handler_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cpa-academy/internal/domain"
	"cpa-academy/internal/dto"
	"cpa-academy/internal/service"
	"cpa-academy/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestMaterialHandler_ListMaterials(t *testing.T) {
	var gotFilter domain.MaterialFilter
	materials := &MockMaterialService{
		ListFunc: func(ctx context.Context, filter domain.MaterialFilter) ([]*domain.Material, domain.MaterialFilter, error) {
			gotFilter = filter
			filter.Limit = 20
			return []*domain.Material{
				{ID: 2, UnitID: 3, Title: "Leases", FileKey: "materials/a.pdf", FileType: "pdf", IsPublic: true, DownloadCount: 9},
			}, filter, nil
		},
	}
	app := newTestApp(testServices{materials: materials})

	t.Run("Success", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/materials?unit=3&search=lease&offset=10", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, domain.MaterialFilter{UnitID: 3, Search: "lease", Offset: 10}, gotFilter)

		var body dto.MaterialListResponse
		decodeJSON(t, resp.Body, &body)
		require.Len(t, body.Items, 1)
		assert.Equal(t, int64(9), body.Items[0].DownloadCount)
		assert.True(t, body.Items[0].HasFile)
		assert.Equal(t, []string{}, body.Items[0].Tags)
		assert.Equal(t, dto.PaginationInfo{Limit: 20, Offset: 10, Count: 1}, body.Pagination)
	})

	t.Run("InvalidQuery", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/materials?limit=many", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestMaterialHandler_UploadMaterial(t *testing.T) {
	var gotRequester domain.Requester
	var gotInput service.UploadInput
	var gotContent string
	materials := &MockMaterialService{
		UploadFunc: func(ctx context.Context, requester domain.Requester, in service.UploadInput) (*domain.Material, error) {
			gotRequester = requester
			gotInput = in
			b, _ := io.ReadAll(in.File.Body)
			gotContent = string(b)
			owner := requester.UserID
			return &domain.Material{
				ID: 11, UnitID: in.UnitID, Title: in.Title, Tags: in.Tags, IsPublic: in.IsPublic,
				FileKey: "materials/01HX.pdf", FileName: in.File.FileName, FileType: "pdf",
				FileSize: in.File.Size, UploadedBy: &owner, UploadDate: time.Now(),
			}, nil
		},
	}
	app := newTestApp(testServices{materials: materials})

	t.Run("Success", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{
			"unit_id":     "3",
			"title":       "Lease cheat sheet",
			"description": "ASC 842",
			"tags":        `["far", "leases"]`,
			"is_public":   "false",
		}, "leases.pdf", []byte("%PDF-1.7"))

		req := httptest.NewRequest("POST", "/api/materials/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", bearer(userToken))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		assert.Equal(t, userID, gotRequester.UserID)
		assert.Equal(t, int64(3), gotInput.UnitID)
		assert.Equal(t, "ASC 842", gotInput.Description)
		assert.Equal(t, []string{"far", "leases"}, gotInput.Tags)
		assert.False(t, gotInput.IsPublic)
		assert.Equal(t, "leases.pdf", gotInput.File.FileName)
		assert.Equal(t, int64(8), gotInput.File.Size)
		assert.Equal(t, "%PDF-1.7", gotContent)

		var out dto.MaterialResponse
		decodeJSON(t, resp.Body, &out)
		assert.Equal(t, int64(11), out.ID)
		assert.Equal(t, userID, *out.UploadedBy)
	})

	t.Run("Anonymous", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"unit_id": "3", "title": "x"}, "a.pdf", []byte("x"))
		req := httptest.NewRequest("POST", "/api/materials/upload", body)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("MissingFile", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"unit_id": "3", "title": "x"}, "", nil)
		req := httptest.NewRequest("POST", "/api/materials/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", bearer(userToken))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("BadUnitID", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"unit_id": "abc", "title": "x"}, "a.pdf", []byte("x"))
		req := httptest.NewRequest("POST", "/api/materials/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", bearer(userToken))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("ServiceRejectsType", func(t *testing.T) {
		materials.UploadFunc = func(ctx context.Context, requester domain.Requester, in service.UploadInput) (*domain.Material, error) {
			return nil, domain.NewUnsupportedFileTypeError([]string{"pdf", "docx"})
		}
		body, contentType := multipartBody(t, map[string]string{"unit_id": "3", "title": "x"}, "a.exe", []byte("x"))
		req := httptest.NewRequest("POST", "/api/materials/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", bearer(userToken))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var out dto.ErrorResponse
		decodeJSON(t, resp.Body, &out)
		assert.Equal(t, "UNSUPPORTED_FILE_TYPE", out.Code)
		assert.Equal(t, "Only pdf, docx files are allowed.", out.Detail)
	})
}

func TestMaterialHandler_GetMaterial(t *testing.T) {
	materials := &MockMaterialService{
		GetFunc: func(ctx context.Context, id int64, requester domain.Requester) (*domain.Material, error) {
			if id == 5 && requester.UserID == userID {
				return &domain.Material{ID: 5, Title: "Mine", IsPublic: false}, nil
			}
			return nil, domain.NewMaterialNotFoundError(id)
		},
	}
	app := newTestApp(testServices{materials: materials})

	req := httptest.NewRequest("GET", "/api/materials/5", nil)
	req.Header.Set("Authorization", bearer(userToken))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/materials/5", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/materials/0", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMaterialHandler_ReplaceMaterialFile(t *testing.T) {
	materials := &MockMaterialService{
		ReplaceFileFunc: func(ctx context.Context, id int64, requester domain.Requester, file service.FileInput) (*domain.Material, error) {
			if !requester.IsStaff {
				return nil, domain.NewForbiddenError("You do not have permission to modify this material.")
			}
			return &domain.Material{ID: id, FileKey: "materials/new.pptx", FileName: file.FileName, FileType: "pptx"}, nil
		},
	}
	app := newTestApp(testServices{materials: materials})

	body, contentType := multipartBody(t, nil, "deck.pptx", []byte("pptx"))
	req := httptest.NewRequest("PUT", "/api/materials/4/file", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(staffToken))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out dto.MaterialResponse
	decodeJSON(t, resp.Body, &out)
	assert.Equal(t, "deck.pptx", out.FileName)
	assert.Equal(t, "pptx", out.FileType)

	body, contentType = multipartBody(t, nil, "deck.pptx", []byte("pptx"))
	req = httptest.NewRequest("PUT", "/api/materials/4/file", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(userToken))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestMaterialHandler_DeleteMaterial(t *testing.T) {
	var deleted []int64
	materials := &MockMaterialService{
		DeleteFunc: func(ctx context.Context, id int64, requester domain.Requester) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	app := newTestApp(testServices{materials: materials})

	req := httptest.NewRequest("DELETE", "/api/materials/8", nil)
	req.Header.Set("Authorization", bearer(userToken))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []int64{8}, deleted)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/materials/8", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Len(t, deleted, 1)
}

func TestMaterialHandler_DownloadRedirect(t *testing.T) {
	downloads := &MockDownloadService{
		ResolveFunc: func(ctx context.Context, materialID int64, requester domain.Requester) (*domain.Delivery, error) {
			return &domain.Delivery{
				URL:         "https://bucket.example.com/media/materials/a.pdf?X-Amz-Signature=abc",
				Filename:    "notes.pdf",
				ContentType: "application/pdf",
			}, nil
		},
	}
	app := newTestApp(testServices{downloads: downloads})

	for _, path := range []string{"/api/materials/1/download", "/api/materials/download/1"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON)

		var out dto.DownloadResponse
		decodeJSON(t, resp.Body, &out)
		assert.Equal(t, "notes.pdf", out.Filename)
		assert.Equal(t, "application/pdf", out.ContentType)
		assert.True(t, strings.HasPrefix(out.DownloadURL, "https://bucket.example.com/"))
	}
}

func TestMaterialHandler_DownloadLocalDisk(t *testing.T) {
	store, err := storage.NewLocalDisk(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	content := []byte("%PDF-1.7 audit sampling")
	require.NoError(t, store.Put(ctx, "materials/public.pdf", bytes.NewReader(content), int64(len(content)), "application/pdf"))
	require.NoError(t, store.Put(ctx, "materials/private.pdf", bytes.NewReader(content), int64(len(content)), "application/pdf"))

	owner := userID
	repo := newMemMaterialRepository(
		&domain.Material{ID: 1, FileKey: "materials/public.pdf", FileName: "audit-sampling.pdf", ContentType: "application/pdf", IsPublic: true},
		&domain.Material{ID: 2, FileKey: "materials/private.pdf", FileName: "private.pdf", ContentType: "application/pdf", UploadedBy: &owner},
		&domain.Material{ID: 3, IsPublic: true},
		&domain.Material{ID: 4, FileKey: "materials/missing.pdf", FileName: "missing.pdf", IsPublic: true},
	)
	app := newTestApp(testServices{downloads: service.NewDownloadService(repo, store)})

	t.Run("PublicStream", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/materials/1/download", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="audit-sampling.pdf"`, resp.Header.Get("Content-Disposition"))

		got, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, content, got)
		assert.Equal(t, int64(1), repo.count(1))
	})

	t.Run("AnonymousPrivate", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/materials/2/download", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		var out dto.ErrorResponse
		decodeJSON(t, resp.Body, &out)
		assert.Equal(t, "Authentication required to download this material.", out.Detail)
		assert.Equal(t, int64(0), repo.count(2))
	})

	t.Run("OtherUserPrivate", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/materials/2/download", nil)
		req.Header.Set("Authorization", bearer(staffToken))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		repo.materials[2].UploadedBy = nil
		req = httptest.NewRequest("GET", "/api/materials/2/download", nil)
		req.Header.Set("Authorization", bearer(userToken))
		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		assert.Equal(t, int64(1), repo.count(2))
	})

	t.Run("Missing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/materials/99999/download", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, strings.ToLower(string(raw)), "not found")
	})

	t.Run("NoFile", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/materials/3/download", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		var out dto.ErrorResponse
		decodeJSON(t, resp.Body, &out)
		assert.Equal(t, "NO_FILE", out.Code)
	})

	t.Run("FileMissingFromDisk", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/materials/download/4", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		var out dto.ErrorResponse
		decodeJSON(t, resp.Body, &out)
		assert.Equal(t, "File not found in storage.", out.Detail)
		assert.Equal(t, int64(0), repo.count(4))
	})
}
