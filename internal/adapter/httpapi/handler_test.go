package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rag-harness/internal/adapter/httpapi"
	"rag-harness/internal/domain"
	"rag-harness/internal/usecase"
)

type mockRetrieveUsecase struct {
	mock.Mock
}

func (m *mockRetrieveUsecase) Execute(ctx context.Context, input usecase.RetrieveContextInput) (*usecase.RetrieveContextOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RetrieveContextOutput), args.Error(1)
}

type mockAnswerUsecase struct {
	mock.Mock
}

func (m *mockAnswerUsecase) Execute(ctx context.Context, input usecase.AnswerPipelineInput) (*usecase.AnswerPipelineOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AnswerPipelineOutput), args.Error(1)
}

type mockCompareUsecase struct {
	mock.Mock
}

func (m *mockCompareUsecase) Execute(ctx context.Context, input usecase.ComparePipelinesInput) (*usecase.ComparePipelinesOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ComparePipelinesOutput), args.Error(1)
}

func postJSON(t *testing.T, e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newServer(retrieve usecase.RetrieveContextUsecase, answer usecase.AnswerPipelineUsecase, compare usecase.ComparePipelinesUsecase) *echo.Echo {
	e := echo.New()
	httpapi.NewHandler(retrieve, answer, compare).RegisterRoutes(e)
	return e
}

func TestRetrieveContext_OK(t *testing.T) {
	retrieve := new(mockRetrieveUsecase)
	retrieve.On("Execute", mock.Anything, usecase.RetrieveContextInput{Query: "glaciers", UsePool: true}).
		Return(&usecase.RetrieveContextOutput{
			Pool: domain.QueryPool{"glaciers", "glacier retreat"},
			Records: domain.Context{
				{Query: "glaciers", SourceQuery: "glacier retreat", Text: "long text", Score: 0.9, Rank: 1, SerpID: "s1", SnippetID: "n1"},
			},
		}, nil)

	e := newServer(retrieve, new(mockAnswerUsecase), new(mockCompareUsecase))
	rec := postJSON(t, e, "/v1/context", `{"query": "glaciers", "use_pool": true}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["count"])
	assert.Len(t, resp["pool"], 2)

	records := resp["records"].([]interface{})
	first := records[0].(map[string]interface{})
	assert.Equal(t, "glacier retreat", first["source_query"])
	assert.Equal(t, "s1", first["serp_id"])
}

func TestRetrieveContext_EmptyQuery(t *testing.T) {
	e := newServer(new(mockRetrieveUsecase), new(mockAnswerUsecase), new(mockCompareUsecase))
	rec := postJSON(t, e, "/v1/context", `{"query": "  "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnswer_DefaultsToDirectPipeline(t *testing.T) {
	answer := new(mockAnswerUsecase)
	answer.On("Execute", mock.Anything, usecase.AnswerPipelineInput{Query: "q", Pipeline: usecase.PipelineDirect}).
		Return(&usecase.AnswerPipelineOutput{
			Pipeline: usecase.PipelineDirect,
			Answer:   "an answer",
			Elapsed:  1500 * time.Millisecond,
		}, nil)

	e := newServer(new(mockRetrieveUsecase), answer, new(mockCompareUsecase))
	rec := postJSON(t, e, "/v1/answer", `{"query": "q"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "direct", resp["pipeline"])
	assert.Equal(t, "an answer", resp["answer"])
	assert.InDelta(t, 1.5, resp["elapsed_seconds"].(float64), 1e-9)
}

func TestAnswer_UnknownPipelineIsBadRequest(t *testing.T) {
	answer := new(mockAnswerUsecase)
	answer.On("Execute", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w %q", usecase.ErrUnknownPipeline, "mystery"))

	e := newServer(new(mockRetrieveUsecase), answer, new(mockCompareUsecase))
	rec := postJSON(t, e, "/v1/answer", `{"query": "q", "pipeline": "mystery"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnswer_UsecaseFailureIsServerError(t *testing.T) {
	answer := new(mockAnswerUsecase)
	answer.On("Execute", mock.Anything, mock.Anything).
		Return(nil, errors.New("boom"))

	e := newServer(new(mockRetrieveUsecase), answer, new(mockCompareUsecase))
	rec := postJSON(t, e, "/v1/answer", `{"query": "q"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCompare_OK(t *testing.T) {
	compare := new(mockCompareUsecase)
	compare.On("Execute", mock.Anything, usecase.ComparePipelinesInput{Query: "q"}).
		Return(&usecase.ComparePipelinesOutput{
			Query: "q",
			Left:  usecase.PipelineRun{Pipeline: usecase.PipelinePool, Answer: "pool answer", Elapsed: 4 * time.Second},
			Right: usecase.PipelineRun{Pipeline: usecase.PipelineDirect, Answer: "direct answer", Elapsed: 2 * time.Second},
		}, nil)

	e := newServer(new(mockRetrieveUsecase), new(mockAnswerUsecase), compare)
	rec := postJSON(t, e, "/v1/compare", `{"query": "q"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	left := resp["left"].(map[string]interface{})
	right := resp["right"].(map[string]interface{})
	assert.Equal(t, "pool", left["pipeline"])
	assert.Equal(t, "direct", right["pipeline"])
	assert.InDelta(t, 4.0, left["elapsed_seconds"].(float64), 1e-9)
}

func TestCompare_EmptyQuery(t *testing.T) {
	e := newServer(new(mockRetrieveUsecase), new(mockAnswerUsecase), new(mockCompareUsecase))
	rec := postJSON(t, e, "/v1/compare", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
