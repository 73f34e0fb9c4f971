package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/janisrealty/janis/services/transfer"
)

func (cli *commandLine) exportPropertiesCmd() *cobra.Command {
	var (
		out  string
		opts transfer.ExportOptions
	)

	cmd := &cobra.Command{
		Use:   "export-properties --out FILE (--last N | --all | --codes A,B)",
		Short: "Export listings with their media references to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return usage(cmd, args)
			}
			payload, err := cli.transfer.Export(cmd.Context(), opts)
			if err == transfer.ErrExportMode {
				return usage(cmd, args)
			}
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return errors.Wrap(err, "creating export file")
			}
			if err := transfer.Write(f, payload); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			return cli.report(map[string]int{"exported": len(payload.Items)})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "destination JSON file")
	cmd.Flags().IntVar(&opts.Last, "last", 0, "export the N most recent listings")
	cmd.Flags().BoolVar(&opts.All, "all", false, "export every listing")
	cmd.Flags().StringSliceVar(&opts.Codes, "codes", nil, "export the listings with these codes")
	return cmd
}

func (cli *commandLine) importPropertiesCmd() *cobra.Command {
	var (
		in     string
		userID int64
		opts   = transfer.ImportOptions{Images: true, Documents: true}
	)

	cmd := &cobra.Command{
		Use:   "import-properties --in FILE",
		Short: "Upsert listings by code from an export file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return usage(cmd, args)
			}
			f, err := os.Open(in)
			if err != nil {
				return errors.Wrap(err, "opening import file")
			}
			defer func() { _ = f.Close() }()

			payload, err := transfer.Read(f)
			if err != nil {
				return err
			}
			if userID > 0 {
				opts.ActorID = &userID
			}
			res, err := cli.transfer.Import(cmd.Context(), payload, opts)
			if err != nil {
				return err
			}
			return cli.report(res)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "source JSON file")
	cmd.Flags().Int64Var(&userID, "user-id", 0, "user recorded as creator of new listings")
	cmd.Flags().StringVar(&opts.MarkSource, "mark-source", "", "override the source of every listing")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "count without saving")
	cmd.Flags().BoolVar(&opts.Images, "images", true, "link image references")
	cmd.Flags().BoolVar(&opts.Documents, "documents", true, "link document references")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop after N items")
	return cmd
}
