package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	ingestapp "github.com/costiq/backend/internal/application/ingest"
	"github.com/costiq/backend/internal/domain/ingest"
	"github.com/costiq/backend/internal/domain/shared"
	"github.com/costiq/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUploadProcessor struct {
	mock.Mock
}

func (m *mockUploadProcessor) ProcessUpload(ctx context.Context, filename string, fileType ingest.FileType, content []byte) (*ingestapp.UploadResult, error) {
	args := m.Called(ctx, filename, fileType, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingestapp.UploadResult), args.Error(1)
}

func (m *mockUploadProcessor) Batches(ctx context.Context, page, pageSize int) ([]*ingest.UploadBatch, int64, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ingest.UploadBatch), args.Get(1).(int64), args.Error(2)
}

func (m *mockUploadProcessor) BatchByID(ctx context.Context, id uuid.UUID) (*ingest.UploadBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingest.UploadBatch), args.Error(1)
}

func newUploadRouter(service UploadProcessor, maxUploadSize int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewUploadHandler(service, maxUploadSize)
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func multipartUpload(t *testing.T, fileType, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	if fileType != "" {
		require.NoError(t, writer.WriteField("file_type", fileType))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadHandler_Upload(t *testing.T) {
	csvContent := "vendor_name,item_sku,unit_price\nAcme,SKU-1,12.50\n"

	t.Run("processes a valid upload", func(t *testing.T) {
		service := new(mockUploadProcessor)
		batch := ingest.NewUploadBatch("po.csv", ingest.FileTypePO)
		batch.Complete(1, nil)
		service.On("ProcessUpload", mock.Anything, "po.csv", ingest.FileTypePO, []byte(csvContent)).
			Return(&ingestapp.UploadResult{Batch: batch, RecordCount: 1}, nil)

		router := newUploadRouter(service, 1<<20)
		body, contentType := multipartUpload(t, "po", "po.csv", csvContent)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(1), data["record_count"])
		batchData := data["batch"].(map[string]interface{})
		assert.Equal(t, "po.csv", batchData["filename"])
		assert.Equal(t, "completed", batchData["status"])
		service.AssertExpectations(t)
	})

	t.Run("rejects missing file_type", func(t *testing.T) {
		router := newUploadRouter(new(mockUploadProcessor), 1<<20)
		body, contentType := multipartUpload(t, "", "po.csv", csvContent)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects unknown file_type", func(t *testing.T) {
		router := newUploadRouter(new(mockUploadProcessor), 1<<20)
		body, contentType := multipartUpload(t, "equipment", "eq.csv", csvContent)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeInvalidFileType, resp.Error.Code)
	})

	t.Run("rejects missing file", func(t *testing.T) {
		router := newUploadRouter(new(mockUploadProcessor), 1<<20)
		body, contentType := multipartUpload(t, "po", "", "")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		router := newUploadRouter(new(mockUploadProcessor), 10)
		body, contentType := multipartUpload(t, "po", "big.csv", csvContent)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("maps empty table to 422", func(t *testing.T) {
		service := new(mockUploadProcessor)
		service.On("ProcessUpload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, shared.ErrEmptyTable)

		router := newUploadRouter(service, 1<<20)
		body, contentType := multipartUpload(t, "po", "empty.csv", "vendor_name,item_sku,unit_price\n")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeEmptyTable, resp.Error.Code)
	})
}

func TestUploadHandler_ListBatches(t *testing.T) {
	t.Run("lists batches with default pagination", func(t *testing.T) {
		service := new(mockUploadProcessor)
		batches := []*ingest.UploadBatch{
			ingest.NewUploadBatch("inventory.csv", ingest.FileTypeInventory),
			ingest.NewUploadBatch("po.csv", ingest.FileTypePO),
		}
		service.On("Batches", mock.Anything, 1, 50).Return(batches, int64(2), nil)

		router := newUploadRouter(service, 1<<20)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(2), resp.Meta.Total)
		assert.Len(t, resp.Data.([]interface{}), 2)
		service.AssertExpectations(t)
	})

	t.Run("passes explicit pagination through", func(t *testing.T) {
		service := new(mockUploadProcessor)
		service.On("Batches", mock.Anything, 3, 10).Return([]*ingest.UploadBatch{}, int64(21), nil)

		router := newUploadRouter(service, 1<<20)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads?page=3&page_size=10", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		service.AssertExpectations(t)
	})

	t.Run("rejects invalid pagination", func(t *testing.T) {
		router := newUploadRouter(new(mockUploadProcessor), 1<<20)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads?page=-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUploadHandler_GetBatch(t *testing.T) {
	t.Run("returns a stored batch", func(t *testing.T) {
		service := new(mockUploadProcessor)
		batch := ingest.NewUploadBatch("po.csv", ingest.FileTypePO)
		batch.Complete(42, []string{"Missing columns: department"})
		service.On("BatchByID", mock.Anything, batch.ID).Return(batch, nil)

		router := newUploadRouter(service, 1<<20)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads/"+batch.ID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, batch.ID.String(), data["id"])
		assert.Equal(t, float64(42), data["record_count"])
	})

	t.Run("rejects malformed IDs", func(t *testing.T) {
		router := newUploadRouter(new(mockUploadProcessor), 1<<20)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads/not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps missing batches to 404", func(t *testing.T) {
		service := new(mockUploadProcessor)
		id := uuid.New()
		service.On("BatchByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		router := newUploadRouter(service, 1<<20)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads/"+id.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
