package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/janisrealty/janis/services/remax"
)

func (cli *commandLine) importRemaxCmd() *cobra.Command {
	var (
		file   string
		userID int64
		opts   remax.Options
	)

	cmd := &cobra.Command{
		Use:   "import-remax --file EXPORT.csv",
		Short: "Import a RE/MAX listing export",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return usage(cmd, args)
			}
			f, err := os.Open(file)
			if err != nil {
				return errors.Wrap(err, "opening export")
			}
			defer func() { _ = f.Close() }()

			if userID > 0 {
				opts.ActorID = &userID
			}
			res, err := cli.remax.Import(cmd.Context(), f, opts)
			if err != nil {
				return err
			}
			return cli.report(res)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to the semicolon separated export")
	cmd.Flags().Int64Var(&userID, "user-id", 0, "user recorded as creator of new listings")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "parse and count without saving")
	cmd.Flags().BoolVar(&opts.Images, "images", false, "download listing images")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop after N rows")
	return cmd
}

func (cli *commandLine) purgeRemaxCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge-remax --yes",
		Short: "Delete every RE/MAX listing with its images and orphaned agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usage(cmd, args)
			}
			res, err := cli.remax.Purge(cmd.Context())
			if err != nil {
				return err
			}
			return cli.report(res)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	return cmd
}
