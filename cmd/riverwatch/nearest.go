package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/matcher"
	"github.com/couchcryptid/river-height-service/internal/observability"
	"github.com/spf13/cobra"
)

func nearestCommand(a *app) *cobra.Command {
	var (
		kind string
		at   string
	)

	cmd := &cobra.Command{
		Use:     "nearest",
		Short:   "Print the stored sample closest in time to a moment",
		Example: "  riverwatch nearest --kind astronomical --at 2024-03-01T12:00:00-03:00",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("--at must be RFC3339: %w", err)
			}

			logger := observability.NewStderrLogger(a.cfg)
			db, err := a.openStore(logger)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // read-only command

			m := matcher.New(db.Tides(), logger, observability.NewMetrics())
			match, ok, err := m.FindNearest(cmd.Context(), domain.TideKind(kind), target)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("no samples of kind " + kind)
			}
			return printJSON(cmd.OutOrStdout(), match)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(domain.KindReading), "sample kind: reading or astronomical")
	cmd.Flags().StringVar(&at, "at", "", "target moment, RFC3339")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}
