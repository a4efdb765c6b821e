package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"rag-harness/internal/domain"
	"rag-harness/internal/usecase"
)

type Handler struct {
	retrieveUsecase usecase.RetrieveContextUsecase
	answerUsecase   usecase.AnswerPipelineUsecase
	compareUsecase  usecase.ComparePipelinesUsecase
}

func NewHandler(
	retrieveUsecase usecase.RetrieveContextUsecase,
	answerUsecase usecase.AnswerPipelineUsecase,
	compareUsecase usecase.ComparePipelinesUsecase,
) *Handler {
	return &Handler{
		retrieveUsecase: retrieveUsecase,
		answerUsecase:   answerUsecase,
		compareUsecase:  compareUsecase,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/context", h.RetrieveContext)
	e.POST("/v1/answer", h.Answer)
	e.POST("/v1/compare", h.Compare)
}

type contextRequest struct {
	Query     string `json:"query"`
	Precision bool   `json:"precision"`
	UsePool   bool   `json:"use_pool"`
	PoolSize  int    `json:"pool_size"`
}

type snippetRecordDTO struct {
	Query          string  `json:"query"`
	SourceQuery    string  `json:"source_query,omitempty"`
	ProviderDomain string  `json:"provider_domain,omitempty"`
	Text           string  `json:"text"`
	Score          float64 `json:"score"`
	Rank           int     `json:"rank"`
	SerpID         string  `json:"serp_id"`
	SnippetID      string  `json:"snippet_id"`
}

type contextResponse struct {
	Query   string             `json:"query"`
	Pool    []string           `json:"pool"`
	Count   int                `json:"count"`
	Records []snippetRecordDTO `json:"records"`
}

// Retrieve the assembled context for a query
// (POST /v1/context)
func (h *Handler) RetrieveContext(ctx echo.Context) error {
	var req contextRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	output, err := h.retrieveUsecase.Execute(ctx.Request().Context(), usecase.RetrieveContextInput{
		Query:     req.Query,
		Precision: req.Precision,
		UsePool:   req.UsePool,
		PoolSize:  req.PoolSize,
	})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, contextResponse{
		Query:   req.Query,
		Pool:    output.Pool,
		Count:   len(output.Records),
		Records: toRecordDTOs(output.Records),
	})
}

type answerRequest struct {
	Query    string `json:"query"`
	Pipeline string `json:"pipeline"`
}

type answerResponse struct {
	Pipeline        string             `json:"pipeline"`
	Answer          string             `json:"answer,omitempty"`
	Reason          string             `json:"reason,omitempty"`
	Summary         string             `json:"summary,omitempty"`
	RewrittenQuery  string             `json:"rewritten_query,omitempty"`
	Pool            []string           `json:"pool,omitempty"`
	Records         []snippetRecordDTO `json:"records"`
	FilteredRecords []snippetRecordDTO `json:"filtered_records,omitempty"`
	FilterAbstained bool               `json:"filter_abstained"`
	ElapsedSeconds  float64            `json:"elapsed_seconds"`
}

// Answer a query with one of the pipelines
// (POST /v1/answer)
func (h *Handler) Answer(ctx echo.Context) error {
	var req answerRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	pipeline := usecase.PipelineKind(req.Pipeline)
	if req.Pipeline == "" {
		pipeline = usecase.PipelineDirect
	}

	output, err := h.answerUsecase.Execute(ctx.Request().Context(), usecase.AnswerPipelineInput{
		Query:    req.Query,
		Pipeline: pipeline,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownPipeline) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, answerResponse{
		Pipeline:        string(output.Pipeline),
		Answer:          output.Answer,
		Reason:          output.Reason,
		Summary:         output.Summary,
		RewrittenQuery:  output.RewrittenQuery,
		Pool:            output.Pool,
		Records:         toRecordDTOs(output.Context),
		FilteredRecords: toRecordDTOs(output.FilteredContext),
		FilterAbstained: output.FilterAbstained,
		ElapsedSeconds:  output.Elapsed.Seconds(),
	})
}

type compareRequest struct {
	Query string `json:"query"`
}

type comparisonSideDTO struct {
	Pipeline       string  `json:"pipeline"`
	Answer         string  `json:"answer,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

type compareResponse struct {
	Query string            `json:"query"`
	Left  comparisonSideDTO `json:"left"`
	Right comparisonSideDTO `json:"right"`
}

// Run the direct and pool pipelines side by side
// (POST /v1/compare)
func (h *Handler) Compare(ctx echo.Context) error {
	var req compareRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	output, err := h.compareUsecase.Execute(ctx.Request().Context(), usecase.ComparePipelinesInput{
		Query: req.Query,
	})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, compareResponse{
		Query: output.Query,
		Left:  toSideDTO(output.Left),
		Right: toSideDTO(output.Right),
	})
}

func toRecordDTOs(records domain.Context) []snippetRecordDTO {
	dtos := make([]snippetRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = snippetRecordDTO{
			Query:          rec.Query,
			SourceQuery:    rec.SourceQuery,
			ProviderDomain: rec.ProviderDomain,
			Text:           rec.Text,
			Score:          rec.Score,
			Rank:           rec.Rank,
			SerpID:         rec.SerpID,
			SnippetID:      rec.SnippetID,
		}
	}
	return dtos
}

func toSideDTO(run usecase.PipelineRun) comparisonSideDTO {
	return comparisonSideDTO{
		Pipeline:       string(run.Pipeline),
		Answer:         run.Answer,
		Reason:         run.Reason,
		ElapsedSeconds: run.Elapsed.Seconds(),
	}
}
