package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ragd/ragd/internal/config"
	"github.com/ragd/ragd/internal/embed"
	"github.com/ragd/ragd/internal/index"
	"github.com/ragd/ragd/internal/retrieval"
	"github.com/ragd/ragd/internal/rlog"
	"github.com/ragd/ragd/internal/rpc"
	"github.com/ragd/ragd/internal/store"
	"github.com/ragd/ragd/internal/streamhub"
	"github.com/ragd/ragd/internal/tool"
	"github.com/ragd/ragd/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the RPC tool server, file watcher and stream hub",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := rlog.New(cfg)

	st := store.New(store.Options{
		DedupEnabled:      cfg.DedupEnabled,
		VersioningEnabled: cfg.VersioningEnabled,
		AutoMigrateIDs:    cfg.AutoMigrateIDs,
		AutoSave:          cfg.AutoSave,
		Path:              cfg.DocumentsFile(),
		Log:               log,
	})

	embedder := selectEmbedder(cfg)
	dense := index.NewDense(embedder, cfg.SimilarityThreshold, cfg.EmbeddingBatchSize)
	sparse := index.NewSparse(cfg.MaxFeatures, cfg.SparseThreshold)
	attrs := index.NewAttrs()

	engine := retrieval.New(log, st, dense, sparse, attrs, retrieval.Config{
		UseEmbeddings: cfg.UseEmbeddings,
		UseSparse:     cfg.UseSparse,
	})
	if err := engine.Load(ctx); err != nil {
		log.Warn("initial load degraded", "error", err)
	}

	hub := streamhub.New(log)
	pred := watcher.Predicate{
		TagSubstring:    cfg.WatchTag,
		CategoryPrefix:  cfg.WatchCategoryPrefix,
		SourceSubstring: cfg.WatchSourceSubstr,
	}
	watch := watcher.New(log, cfg.DocumentsFile(), pred, config.DefaultURLFallback, hub)

	go func() {
		if err := watch.Run(ctx); err != nil {
			log.Warn("watcher stopped", "error", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/stream", hub)
	httpSrv := &http.Server{Addr: cfg.StreamAddr, Handler: mux}
	go func() {
		log.Info("stream hub listening", "addr", cfg.StreamAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("stream http server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = httpSrv.Close()
	}()

	disp := tool.New(engine, cfg.SearchLimitDefault, cfg.ServerVersion)
	return rpc.Serve(ctx, log, disp, cfg.ServerName, cfg.ServerVersion)
}

// selectEmbedder returns an OpenAI-backed embedder when an API key is
// configured, otherwise the dependency-free hashing embedder so the server
// remains usable fully offline.
func selectEmbedder(cfg *config.Config) embed.Embedder {
	if cfg.OpenAIAPIKey != "" {
		return embed.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	}
	return embed.NewHashingEmbedder()
}
