package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/property"
	blobsvc "github.com/janisrealty/janis/services/blob"
)

func (cli *commandLine) migrateImagesCmd() *cobra.Command {
	var (
		dryRun, onlyMissing bool
		limit               int
	)

	cmd := &cobra.Command{
		Use:   "migrate-images",
		Short: "Copy listing images and documents from the local media dir to Azure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := cli.targetStore()
			if err != nil {
				return err
			}
			keys, err := cli.mediaKeys(cmd.Context(), limit)
			if err != nil {
				return err
			}
			res, err := blobsvc.MigrateToStore(cmd.Context(), cli.localBlobs, target, keys, onlyMissing, dryRun)
			if err != nil {
				return err
			}
			return cli.report(res)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "count without copying")
	cmd.Flags().BoolVar(&onlyMissing, "only-missing", true, "skip blobs already in the target")
	cmd.Flags().IntVar(&limit, "limit", 0, "only the media of the first N listings")
	return cmd
}

// mediaKeys lists the blob keys of every image and document, listing by listing.
func (cli *commandLine) mediaKeys(ctx context.Context, limit int) ([]string, error) {
	props, err := cli.properties.Filter(ctx, property.QueryFilter{Limit: limit}, []core.DBOrdering{{Field: "id", Ascending: true}})
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, p := range props {
		imgs, err := cli.properties.Images(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, img := range imgs {
			keys = append(keys, img.BlobKey)
		}
		docs, err := cli.properties.Documents(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			keys = append(keys, doc.BlobKey)
		}
	}
	return keys, nil
}
