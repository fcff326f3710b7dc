// Package app builds every service once from configuration and hands them
// to the commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/austiecodes/curator/internal/agent"
	"github.com/austiecodes/curator/internal/api"
	"github.com/austiecodes/curator/internal/catalog"
	"github.com/austiecodes/curator/internal/catalog/milvus"
	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/config"
	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/consumer"
	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/retrieval"
	"github.com/austiecodes/curator/internal/memory/store"
	"github.com/austiecodes/curator/internal/memory/store/pgvector"
	"github.com/austiecodes/curator/internal/preference"
	"github.com/austiecodes/curator/internal/provider"
	"github.com/austiecodes/curator/internal/router"
	"github.com/austiecodes/curator/internal/supervisor"
)

// Store is what both storage backends provide.
type Store interface {
	retrieval.MemoryStore
	retrieval.ContentIndex
	retrieval.Pruner
	catalog.RowStore
	DeleteMemory(ctx context.Context, id string) error
	SaveContent(ctx context.Context, row *memtypes.ContentRow) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*store.Store)(nil)
	_ Store = (*pgvector.Store)(nil)
)

// App holds the wired services. Build it with New and release it with Close.
type App struct {
	Config *config.Config

	Store        Store
	Embedder     client.EmbeddingClient
	Writer       *retrieval.Writer
	Gateway      *retrieval.Gateway
	Retention    *retrieval.Retention
	Catalog      *catalog.Source
	Analyzer     *preference.Analyzer
	Orchestrator *agent.Orchestrator
	Creative     *agent.Creative
	Router       *router.Router

	closers []func() error
	log     zerolog.Logger
}

// New opens storage and builds the pipeline. Nothing runs in the background
// until Tree or StartWriter is called.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, log: logging.WithComponent("app")}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	chat, err := provider.NewCompletionClient(ctx, cfg, cfg.Models.Chat.Provider)
	if err != nil {
		return fmt.Errorf("failed to create chat client: %w", err)
	}
	classifier := chat
	if m := cfg.Models.ClassifierModel(); m.Provider != cfg.Models.Chat.Provider {
		if classifier, err = provider.NewCompletionClient(ctx, cfg, m.Provider); err != nil {
			return fmt.Errorf("failed to create classifier client: %w", err)
		}
	}
	if a.Embedder, err = provider.NewEmbeddingClient(ctx, cfg, cfg.Models.Embedding.Provider); err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}

	if a.Store, err = a.openStore(ctx); err != nil {
		return err
	}
	a.closers = append(a.closers, a.Store.Close)

	var content retrieval.ContentIndex = a.Store
	if cfg.Store.ContentIndex == consts.BackendMilvus {
		ix, err := milvus.Open(ctx, milvus.Config{
			Address:    cfg.Store.MilvusAddress,
			Collection: cfg.Store.MilvusCollection,
			NProbe:     cfg.Store.MilvusNProbe,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, ix.Close)
		content = ix
	}

	norm := catalog.Normalizer{PosterBase: cfg.Catalog.PosterBaseURL}

	a.Writer = retrieval.NewWriter(a.Store, a.Embedder, cfg.Models.Embedding, retrieval.WriterConfig{
		QueueSize:  cfg.Memory.WriterQueueSize,
		Workers:    2,
		MaxRetries: cfg.Memory.WriterMaxRetries,
		RetryDelay: cfg.Memory.WriterRetryDelay,
		Timeout:    cfg.Memory.WriterTimeout,
	})
	a.Gateway = retrieval.NewGateway(a.Store, content, a.Embedder, cfg.Models.Embedding, norm, retrieval.Config{
		MemoryThreshold:  cfg.Retrieval.MemoryThreshold,
		ContentThreshold: cfg.Retrieval.ContentThreshold,
	}, a.Writer)
	a.Retention = retrieval.NewRetention(a.Store, cfg.Memory.Retention, cfg.Memory.RetentionInterval)

	// a nil *TMDBClient must not reach Source as a non-nil interface
	var live catalog.LiveSource
	if cfg.Catalog.TMDBToken != "" {
		live = catalog.NewTMDBClient(catalog.TMDBConfig{
			BaseURL:  cfg.Catalog.TMDBBaseURL,
			Token:    cfg.Catalog.TMDBToken,
			Timeout:  cfg.Catalog.Timeout,
			Failures: cfg.Catalog.BreakerFailures,
			OpenFor:  cfg.Catalog.BreakerTimeout,
		}, norm)
	}
	a.Catalog = catalog.NewSource(a.Store, live, norm)

	a.Analyzer = preference.NewAnalyzer(a.Gateway, preference.DefaultKeywords(), cfg.Retrieval.ReviewHistoryLimit)

	schemas, err := agent.CompileSchemas()
	if err != nil {
		return err
	}
	repair := agent.Repairer{PosterBase: cfg.Catalog.PosterBaseURL}
	gen := agent.NewGenerator(chat, cfg.Models.Chat, cfg.Generation.Temperature, cfg.Generation.Timeout)

	a.Orchestrator = agent.NewOrchestrator(gen, schemas, repair, a.Analyzer, a.Gateway, a.Catalog, agent.OrchestratorConfig{
		RecentReviewLimit: cfg.Retrieval.RecentReviewLimit,
		CandidateLimit:    cfg.Retrieval.CandidateLimit,
		LiveFallback:      cfg.Catalog.LiveFallback,
	})
	a.Creative = agent.NewCreative(gen, schemas, repair)
	a.Router = router.New(classifier, cfg.Models.ClassifierModel(), a.Gateway, a.Orchestrator, a.Creative, router.Config{
		ContextLimit: cfg.Retrieval.ContextLimit,
		Timeout:      cfg.Generation.Timeout,
	})
	return nil
}

func (a *App) openStore(ctx context.Context) (Store, error) {
	switch a.Config.Store.Backend {
	case consts.BackendPostgres:
		dim := a.Embedder.Dimensions(a.Config.Models.Embedding)
		return pgvector.Open(ctx, a.Config.Store.DatabaseURL, dim)
	case consts.BackendSQLite, "":
		return store.Open(a.Config.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.Config.Store.Backend)
	}
}

// Close releases storage in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) Server() *api.Server {
	h := api.NewHandler(a.Router, a.Catalog, a.Gateway, a.Store)
	return api.NewServer(a.Config.Server, h)
}

func (a *App) Consumer() *consumer.Consumer {
	return consumer.New(a.Config.NATS, a.Gateway)
}

// Tree assembles the supervised services for serve and consume.
func (a *App) Tree(withAPI, withConsumer bool) *supervisor.Tree {
	tree := supervisor.NewTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
	})
	tree.AddDataService(a.Writer)
	tree.AddDataService(a.Retention)
	if withConsumer {
		tree.AddMessagingService(a.Consumer())
	}
	if withAPI {
		tree.AddAPIService(a.Server())
	}
	return tree
}

// StartWriter runs the conversation writer for one-shot commands. The
// returned stop function waits for queued writes before stopping it.
func (a *App) StartWriter(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.Writer.Serve(ctx)
	}()

	return func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer flushCancel()
		if err := a.Writer.Flush(flushCtx); err != nil {
			a.log.Warn().Err(err).Int("pending", a.Writer.Pending()).Msg("conversation writes did not finish")
		}
		cancel()
		<-done
	}
}
