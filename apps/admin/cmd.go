package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/matching"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
	"github.com/janisrealty/janis/services/remax"
	"github.com/janisrealty/janis/services/transfer"
	"github.com/janisrealty/janis/services/wordpress"
	"github.com/janisrealty/janis/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	gooseRunFunc     = database.Run      // mockable

	errHelp = errors.New("help provided")
)

type (
	wpSyncer interface {
		SyncMany(ctx context.Context, onlyActive bool, limit int) (wordpress.SyncManyResult, error)
	}

	commandLine struct {
		db     *sql.DB
		out    io.Writer
		logger core.Logger

		usrRepo    user.Repository
		properties *property.Service
		matching   *matching.Service
		remax      *remax.Importer
		transfer   *transfer.Service
		wp         wpSyncer // nil without a WordPress site

		localBlobs  core.BlobStore
		targetStore func() (core.BlobStore, error)
	}
)

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Janis administration commands",
		Args:          cobra.ArbitraryArgs,
		RunE:          usage,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.importRemaxCmd(),
		cli.purgeRemaxCmd(),
		cli.exportPropertiesCmd(),
		cli.importPropertiesCmd(),
		cli.recomputeMatchesCmd(),
		cli.wpSyncCmd(),
		cli.migrateImagesCmd(),
	)
	return root
}

// usage prints the command's help and stops with errHelp.
func usage(cmd *cobra.Command, _ []string) error {
	_ = cmd.Usage()
	return errHelp
}

// run executes the command line; args[0] is the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}
	return root.ExecuteContext(context.Background())
}

// report writes a command result as indented JSON.
func (cli *commandLine) report(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
