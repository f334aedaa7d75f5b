// Command riverwatch runs the river height service and offers a few
// operator commands against its store.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/river-height-service/internal/adapter/store"
	"github.com/couchcryptid/river-height-service/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is populated before any subcommand runs.
type app struct {
	cfg *config.Config
}

func rootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "riverwatch",
		Short:        "River height monitoring service",
		SilenceUsage: true,
	}
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		a.cfg = cfg
		return nil
	}

	rootCmd.AddCommand(
		serveCommand(a),
		thresholdsCommand(a),
		nearestCommand(a),
	)
	return rootCmd
}

func (a *app) openStore(logger *slog.Logger) (*store.DB, error) {
	db, err := store.Open(a.cfg.StoreDriver, a.cfg.StoreDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.StoreDriver, err)
	}
	return db, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
