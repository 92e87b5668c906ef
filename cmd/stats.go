package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ragd/ragd/internal/config"
	"github.com/ragd/ragd/internal/embed"
	"github.com/ragd/ragd/internal/index"
	"github.com/ragd/ragd/internal/retrieval"
	"github.com/ragd/ragd/internal/rlog"
	"github.com/ragd/ragd/internal/store"
)

var statsFormat string

type statsSnapshot struct {
	Stats   store.Stats          `json:"stats" yaml:"stats"`
	Indices retrieval.IndexFlags `json:"indices" yaml:"indices"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store and index statistics without starting the server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		log := rlog.New(cfg)

		st := store.New(store.Options{
			DedupEnabled:      cfg.DedupEnabled,
			VersioningEnabled: cfg.VersioningEnabled,
			AutoMigrateIDs:    cfg.AutoMigrateIDs,
			AutoSave:          false,
			Path:              cfg.DocumentsFile(),
			Log:               log,
		})

		dense := index.NewDense(embed.NewHashingEmbedder(), cfg.SimilarityThreshold, cfg.EmbeddingBatchSize)
		sparse := index.NewSparse(cfg.MaxFeatures, cfg.SparseThreshold)
		attrs := index.NewAttrs()
		engine := retrieval.New(log, st, dense, sparse, attrs, retrieval.Config{
			UseEmbeddings: cfg.UseEmbeddings,
			UseSparse:     cfg.UseSparse,
		})
		if err := engine.Load(cmd.Context()); err != nil {
			return err
		}

		rawStats, flags := engine.Stats()
		current := statsSnapshot{Stats: rawStats, Indices: flags}

		if prev, ok := loadStatsSnapshot(cfg.StatsFile()); ok {
			if diff := cmp.Diff(prev, current); diff != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "changed since last run:")
				fmt.Fprintln(cmd.ErrOrStderr(), diff)
			}
		}
		if err := saveStatsSnapshot(cfg.StatsFile(), current); err != nil {
			log.Warn("persist stats snapshot", "error", err)
		}

		return printStats(cmd, current)
	},
}

func printStats(cmd *cobra.Command, snap statsSnapshot) error {
	var out []byte
	var err error
	switch statsFormat {
	case "yaml":
		out, err = yaml.Marshal(snap)
	default:
		out, err = json.MarshalIndent(snap, "", "  ")
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// loadStatsSnapshot reads the previously persisted stats snapshot, if any,
// so the caller can report what changed since the last invocation.
func loadStatsSnapshot(path string) (statsSnapshot, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return statsSnapshot{}, false
	}
	var snap statsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return statsSnapshot{}, false
	}
	return snap, true
}

func saveStatsSnapshot(path string, snap statsSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "json", "Output format: json or yaml")
	rootCmd.AddCommand(statsCmd)
}
