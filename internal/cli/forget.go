package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ozonms/fbosync/internal/control"
	"github.com/ozonms/fbosync/internal/core/config"
)

var forgetCmd = &cobra.Command{
	Use:   "forget [order_id]",
	Short: "Drop a supply order from the tracked state",
	Long: `Drop a supply order from the tracked state so the next pass treats it as
never seen. The pass will then create fresh documents unless same-named ones
still exist in the ERP, so remove those first.`,
	Args: cobra.ExactArgs(1),
	Run:  runForget,
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}

func runForget(cmd *cobra.Command, args []string) {
	orderID := args[0]

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

	entry, ok := mem.Get(orderID)
	if !ok {
		fmt.Printf("Order %s is not tracked\n", orderID)
		os.Exit(1)
	}

	mem.Forget(orderID)
	if err := store.Save(ctx, mem); err != nil {
		slog.Error("Failed to save state", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully dropped order %s (%s, was %s)\n", orderID, entry.OrderNumber, entry.State)
}
