package main

import (
	"github.com/spf13/cobra"
)

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "migrate COMMAND [ARGS...]",
		Short:              "Run a goose command against the embedded migrations",
		Long:               "Commands: up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status, version, fix.",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usage(cmd, args)
			}
			return gooseRunFunc(cli.db, args[0], args[1:]...)
		},
	}
}
