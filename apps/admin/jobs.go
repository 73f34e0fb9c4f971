package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var errNoWordPress = errors.New("no WordPress site is configured")

func (cli *commandLine) recomputeMatchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-matches",
		Short: "Recompute and store the matches of every requirement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := cli.matching.RecomputeAll(cmd.Context())
			if err != nil {
				return err
			}
			return cli.report(map[string]int{"requirements": n})
		},
	}
}

func (cli *commandLine) wpSyncCmd() *cobra.Command {
	var (
		onlyActive bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "wp-sync",
		Short: "Push listings to the WordPress site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cli.wp == nil {
				return errNoWordPress
			}
			res, err := cli.wp.SyncMany(cmd.Context(), onlyActive, limit)
			if err != nil {
				return err
			}
			return cli.report(res)
		},
	}
	cmd.Flags().BoolVar(&onlyActive, "only-active", true, "skip inactive listings")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after N listings")
	return cmd
}
