package handler

import (
	"context"
	"io"
	"time"

	ingestapp "github.com/costiq/backend/internal/application/ingest"
	"github.com/costiq/backend/internal/domain/ingest"
	"github.com/costiq/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadProcessor is the application service surface the upload
// endpoints need.
type UploadProcessor interface {
	ProcessUpload(ctx context.Context, filename string, fileType ingest.FileType, content []byte) (*ingestapp.UploadResult, error)
	Batches(ctx context.Context, page, pageSize int) ([]*ingest.UploadBatch, int64, error)
	BatchByID(ctx context.Context, id uuid.UUID) (*ingest.UploadBatch, error)
}

// UploadHandler handles CSV upload API endpoints
type UploadHandler struct {
	BaseHandler
	service       UploadProcessor
	maxUploadSize int64
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(service UploadProcessor, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
	}
}

// UploadBatchResponse represents an upload batch in API responses
type UploadBatchResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	FileType    string    `json:"file_type"`
	Status      string    `json:"status"`
	RecordCount int       `json:"record_count"`
	Warnings    []string  `json:"warnings,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUploadBatchResponse(b *ingest.UploadBatch) UploadBatchResponse {
	return UploadBatchResponse{
		ID:          b.ID.String(),
		Filename:    b.Filename,
		FileType:    string(b.FileType),
		Status:      string(b.Status),
		RecordCount: b.RecordCount,
		Warnings:    b.Warnings,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// UploadResultResponse represents the outcome of a processed upload
type UploadResultResponse struct {
	Batch       UploadBatchResponse `json:"batch"`
	RecordCount int                 `json:"record_count"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// Upload accepts a multipart CSV upload and processes it synchronously
func (h *UploadHandler) Upload(c *gin.Context) {
	fileType := c.PostForm("file_type")
	if fileType == "" {
		h.BadRequest(c, "file_type is required")
		return
	}

	if !ingest.FileType(fileType).IsValid() {
		h.ErrorWithCode(c, dto.ErrCodeInvalidFileType,
			"file_type must be one of: po, invoice, inventory, labor")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		h.ErrorWithCode(c, dto.ErrCodeFileTooLarge, "file exceeds maximum allowed size")
		return
	}

	var reader io.Reader = file
	if h.maxUploadSize > 0 {
		reader = io.LimitReader(file, h.maxUploadSize+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		h.BadRequest(c, "failed to read uploaded file")
		return
	}
	if h.maxUploadSize > 0 && int64(len(content)) > h.maxUploadSize {
		h.ErrorWithCode(c, dto.ErrCodeFileTooLarge, "file exceeds maximum allowed size")
		return
	}

	result, err := h.service.ProcessUpload(c.Request.Context(), header.Filename, ingest.FileType(fileType), content)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, UploadResultResponse{
		Batch:       toUploadBatchResponse(result.Batch),
		RecordCount: result.RecordCount,
		Warnings:    result.Warnings,
	})
}

// ListBatches returns stored upload batches, newest first
func (h *UploadHandler) ListBatches(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid pagination parameters")
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 50
	}

	batches, total, err := h.service.Batches(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]UploadBatchResponse, 0, len(batches))
	for _, b := range batches {
		responses = append(responses, toUploadBatchResponse(b))
	}

	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// GetBatch returns a single upload batch by ID
func (h *UploadHandler) GetBatch(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "invalid batch ID")
		return
	}

	batch, err := h.service.BatchByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toUploadBatchResponse(batch))
}

// RegisterRoutes registers upload routes
func (h *UploadHandler) RegisterRoutes(rg *gin.RouterGroup) {
	uploads := rg.Group("/uploads")
	{
		uploads.POST("", h.Upload)
		uploads.GET("", h.ListBatches)
		uploads.GET("/:id", h.GetBatch)
	}
}
