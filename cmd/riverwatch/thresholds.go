package main

import (
	"fmt"
	"strconv"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/observability"
	"github.com/couchcryptid/river-height-service/internal/thresholds"
	"github.com/spf13/cobra"
)

func thresholdsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Show or change the persisted alert thresholds",
	}

	// open loads the store for one subcommand; the returned func closes it.
	open := func(cmd *cobra.Command) (*thresholds.Store, func(), error) {
		logger := observability.NewStderrLogger(a.cfg)
		db, err := a.openStore(logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Error("store close error", "error", err)
			}
		}
		return thresholds.New(cmd.Context(), db.Settings(), logger), closeFn, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the current thresholds",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, closeFn, err := open(cmd)
				if err != nil {
					return err
				}
				defer closeFn()
				return printJSON(cmd.OutOrStdout(), s.Get())
			},
		},
		&cobra.Command{
			Use:   "set WARNING ALERT CRITICAL",
			Short: "Set the thresholds in meters",
			Long: `Set the warning, alert, and critical thresholds in meters.
Values must satisfy 0 <= warning < alert < critical.`,
			Example: "  riverwatch thresholds set 2.5 3.0 3.5",
			Args:    cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := parseThresholds(args)
				if err != nil {
					return err
				}
				s, closeFn, err := open(cmd)
				if err != nil {
					return err
				}
				defer closeFn()
				if err := s.Set(cmd.Context(), t); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), t)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the default thresholds",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, closeFn, err := open(cmd)
				if err != nil {
					return err
				}
				defer closeFn()
				t, err := s.Reset(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), t)
			},
		},
	)
	return cmd
}

func parseThresholds(args []string) (domain.Thresholds, error) {
	var vals [3]float64
	for i, name := range []string{"warning", "alert", "critical"} {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return domain.Thresholds{}, fmt.Errorf("invalid %s %q: %w", name, args[i], err)
		}
		vals[i] = v
	}
	t := domain.Thresholds{Warning: vals[0], Alert: vals[1], Critical: vals[2]}
	return t, t.Validate()
}
