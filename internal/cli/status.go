package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ozonms/fbosync/internal/control"
	"github.com/ozonms/fbosync/internal/core/config"
	"github.com/ozonms/fbosync/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show every supply order the sync is tracking",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := control.NewStateStore(cfg.State)
	if err != nil {
		slog.Error("Failed to open state store", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	mem, err := store.Load(ctx)
	if err != nil {
		slog.Error("Failed to load state", "error", err)
		os.Exit(1)
	}

	entries := mem.Snapshot()
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ORDER\tNUMBER\tSTATE\tSALES DOC\tTRANSFER\tUPDATED")
	for _, id := range ids {
		e := entries[id]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			id, e.OrderNumber, e.State, docID(e.CustomerOrder), docID(e.Move),
			e.UpdatedAt.Format(time.RFC3339))
	}
	_ = w.Flush()

	fmt.Printf("\n%d tracked orders (%s backend)\n", len(ids), backendLabel(cfg.State))
}

func docID(ref *domain.DocRef) string {
	if ref == nil {
		return "-"
	}
	return ref.ID
}

func backendLabel(cfg config.StateConfig) string {
	if cfg.Backend == "" {
		return "file"
	}
	return cfg.Backend
}
