package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/meilisearch/meilisearch-go"

	"rag-harness/internal/adapter/httpapi"
	"rag-harness/internal/adapter/llmchat"
	"rag-harness/internal/adapter/meili"
	"rag-harness/internal/domain"
	"rag-harness/internal/infra/config"
	"rag-harness/internal/infra/httpclient"
	"rag-harness/internal/infra/logger"
	"rag-harness/internal/usecase"
	"rag-harness/internal/usecase/retrieval"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New()
	slog.SetDefault(log)

	// 3. Initialize Search Client
	var searchClient meilisearch.ServiceManager
	if cfg.SearchAPIKey != "" {
		searchClient = meilisearch.New(cfg.SearchHost, meilisearch.WithAPIKey(cfg.SearchAPIKey))
	} else {
		searchClient = meilisearch.New(cfg.SearchHost)
	}
	store := meili.NewStore(searchClient, cfg.SerpIndex, cfg.SnippetIndex, log)

	// 4. Initialize LLM Collaborators
	llmHTTPClient := httpclient.NewPooledClient(120 * time.Second)
	chatClient := llmchat.NewChatClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, llmHTTPClient, log)
	expander := llmchat.NewExpander(chatClient, log)
	judge := llmchat.NewJudge(chatClient, log)
	seedPolicy := domain.NewPromptSeedPolicy(cfg.SeedToken, cfg.SeedRatio)
	generator := llmchat.NewGenerator(chatClient, seedPolicy, log)

	// 5. Initialize Retrieval Components
	searchOpts := domain.SerpSearchOptions{
		Limit:      cfg.SerpLimit,
		Boost:      cfg.EnableDomainBoost,
		TopDomains: cfg.BoostTopDomains,
	}
	assembler := retrieval.NewAssembler(store, searchOpts, log)
	merger := retrieval.NewMerger(assembler, retrieval.MaxContextRecords, log)
	filter := retrieval.NewFilter(judge, cfg.FilterBatchSize, log)

	// 6. Initialize Usecases
	settings := usecase.PipelineSettings{
		PoolSize:      cfg.PoolSize,
		PrecisionPool: cfg.PrecisionPool,
	}
	retrieveUsecase := usecase.NewRetrieveContextUsecase(assembler, merger, expander, settings, log)
	answerUsecase := usecase.NewAnswerPipelineUsecase(assembler, merger, filter, expander, generator, settings, log)
	compareUsecase := usecase.NewComparePipelinesUsecase(answerUsecase, time.Now().UnixNano(), log)

	// 7. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// 8. Register Handlers
	handler := httpapi.NewHandler(retrieveUsecase, answerUsecase, compareUsecase)
	handler.RegisterRoutes(e)

	// 9. Health Checks
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// 10. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("Starting server", "addr", addr, "serp_index", cfg.SerpIndex, "snippet_index", cfg.SnippetIndex)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}
