package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"datapilot/internal/agent"
	"datapilot/internal/approval"
	"datapilot/internal/config"
	"datapilot/internal/docs"
	"datapilot/internal/llm"
	"datapilot/internal/relevance"
	"datapilot/internal/router"
	"datapilot/internal/safety"
	"datapilot/internal/sqltool"
	"datapilot/internal/tools"
)

// session bundles a fully wired agent with the resources it owns.
type session struct {
	agent  *agent.Agent
	corpus *docs.Corpus
	db     *sqltool.Executor
}

// Close releases the session's database handle and corpus watcher.
func (s *session) Close() {
	if s.corpus != nil {
		_ = s.corpus.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// buildSession wires the full pipeline from configuration: seeded catalog
// database, document corpus, approval store, the three tools, the router,
// and the agent on top.
func buildSession(ctx context.Context, cfg *config.Config) (*session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqltool.OpenLocal(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	corpus, err := docs.NewCorpus(cfg.Documents.Dir, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load document corpus: %w", err)
	}
	if cfg.Documents.Watch {
		if err := corpus.Watch(); err != nil {
			logger.Warn("corpus watch disabled: " + err.Error())
		}
	}

	store := approval.NewStore(
		approval.NewExecutorWithLimits(cfg.ExecutionTimeout(), cfg.Execution.MaxOutputBytes),
		logger,
	)

	registry := tools.NewRegistry(
		tools.NewSQLTool(db),
		tools.NewDocsTool(corpus, relevance.NewRanker()),
		tools.NewCommandTool(safety.NewValidator(), store),
	)

	client, err := buildLLMClient(ctx, cfg)
	if err != nil {
		corpus.Close()
		db.Close()
		return nil, err
	}

	a := agent.New(router.New(client, registry, logger), registry, store, client, logger)
	return &session{agent: a, corpus: corpus, db: db}, nil
}

// buildLLMClient returns nil when no provider is configured; the router and
// agent then run on their deterministic paths.
func buildLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "":
		return nil, nil
	case "openai":
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLMTimeout(),
		}), nil
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want openai, gemini, or empty)", cfg.LLM.Provider)
	}
}
