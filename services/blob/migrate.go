package blobsvc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
)

// MigrateResult counts the outcome of MigrateToStore.
type MigrateResult struct {
	Copied  int      `json:"copied"`
	Skipped int      `json:"skipped"`
	Missing int      `json:"missing"`
	Errors  []string `json:"errors"`
}

// MigrateToStore copies the blobs identified by keys from one store to another.
// With onlyMissing, keys already present in the target are skipped. A dry run
// only counts what would be copied.
func MigrateToStore(ctx context.Context, from, to core.BlobStore, keys []string, onlyMissing, dryRun bool) (MigrateResult, error) {
	var res MigrateResult
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if key == "" {
			continue
		}
		if onlyMissing {
			exists, err := to.Exists(ctx, key)
			if err != nil {
				res.Errors = append(res.Errors, key+": "+err.Error())
				continue
			}
			if exists {
				res.Skipped++
				continue
			}
		}
		if dryRun {
			res.Copied++
			continue
		}
		if err := copyBlob(ctx, from, to, key); err != nil {
			if errors.Cause(err) == core.ErrBlobNotFound {
				res.Missing++
				continue
			}
			res.Errors = append(res.Errors, key+": "+err.Error())
			continue
		}
		res.Copied++
	}
	return res, nil
}

func copyBlob(ctx context.Context, from, to core.BlobStore, key string) error {
	r, err := from.Get(ctx, key)
	if err != nil {
		return err
	}
	defer r.Close()
	return errors.Wrap(to.Put(ctx, key, r, ""), "copying blob")
}
