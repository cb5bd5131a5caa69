package handler

import (
	"context"
	"time"

	analysisapp "github.com/costiq/backend/internal/application/analysis"
	"github.com/costiq/backend/internal/domain/analysis"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AnalysisRunner is the application service surface the analysis
// endpoints need.
type AnalysisRunner interface {
	Run(ctx context.Context, evaluationDate time.Time) (*analysisapp.RunResult, error)
	Findings(ctx context.Context, filter analysis.FindingFilter) ([]analysis.Finding, int64, error)
	SummarizeAll(ctx context.Context) (analysisapp.Summary, error)
}

// AnalysisHandler handles cost analysis API endpoints
type AnalysisHandler struct {
	BaseHandler
	service AnalysisRunner
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(service AnalysisRunner) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// FindingResponse represents a finding in API responses
type FindingResponse struct {
	ID               string           `json:"id"`
	Category         string           `json:"category"`
	Severity         string           `json:"severity"`
	Description      string           `json:"description"`
	PotentialSavings *decimal.Decimal `json:"potential_savings,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

func toFindingResponse(f analysis.Finding) FindingResponse {
	return FindingResponse{
		ID:               f.ID.String(),
		Category:         string(f.Category),
		Severity:         string(f.Severity),
		Description:      f.Description,
		PotentialSavings: f.PotentialSavings,
		CreatedAt:        f.CreatedAt,
	}
}

// RunResponse represents the outcome of an analysis run
type RunResponse struct {
	EvaluationDate string              `json:"evaluation_date"`
	Findings       []FindingResponse   `json:"findings"`
	Summary        analysisapp.Summary `json:"summary"`
}

// Run evaluates all rules against the stored record snapshot and
// persists the resulting findings. An optional as_of query parameter
// (YYYY-MM-DD) overrides the evaluation date used by time-based rules.
func (h *AnalysisHandler) Run(c *gin.Context) {
	evaluationDate := time.Now().UTC()
	if asOf := c.Query("as_of"); asOf != "" {
		parsed, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			h.BadRequest(c, "as_of must be a date in YYYY-MM-DD format")
			return
		}
		evaluationDate = parsed
	}

	result, err := h.service.Run(c.Request.Context(), evaluationDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	findings := make([]FindingResponse, 0, len(result.Findings))
	for _, f := range result.Findings {
		findings = append(findings, toFindingResponse(f))
	}

	h.Success(c, RunResponse{
		EvaluationDate: evaluationDate.Format("2006-01-02"),
		Findings:       findings,
		Summary:        result.Summary,
	})
}

// ListFindingsRequest represents finding listing filters
type ListFindingsRequest struct {
	Category string `form:"category" binding:"omitempty,oneof=price_variance contract_mismatch overstock expiry_risk"`
	Severity string `form:"severity" binding:"omitempty,oneof=high medium low"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// ListFindings returns persisted findings, newest first, with optional
// category and severity filters
func (h *AnalysisHandler) ListFindings(c *gin.Context) {
	var req ListFindingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid filter parameters")
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 50
	}

	filter := analysis.FindingFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Category != "" {
		category := analysis.Category(req.Category)
		filter.Category = &category
	}
	if req.Severity != "" {
		severity := analysis.Severity(req.Severity)
		filter.Severity = &severity
	}

	findings, total, err := h.service.Findings(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]FindingResponse, 0, len(findings))
	for _, f := range findings {
		responses = append(responses, toFindingResponse(f))
	}

	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// GetSummary aggregates every persisted finding into per-category and
// per-severity counts plus the total potential savings
func (h *AnalysisHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.SummarizeAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// RegisterRoutes registers analysis routes
func (h *AnalysisHandler) RegisterRoutes(rg *gin.RouterGroup) {
	analysisGroup := rg.Group("/analysis")
	{
		analysisGroup.POST("/run", h.Run)
		analysisGroup.GET("/findings", h.ListFindings)
		analysisGroup.GET("/summary", h.GetSummary)
	}
}
