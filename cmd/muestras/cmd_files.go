package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/pkg/pages"
	"github.com/shashiranjanraj/muestras/pkg/storage"
	"github.com/shashiranjanraj/muestras/pkg/workerpool"
)

var (
	diskFlag  string
	namesFlag []string
)

func disk(cmd *cobra.Command) (storage.Disk, error) {
	if err := storage.Connect(cmd.Context()); err != nil {
		return nil, err
	}
	return storage.Use(diskFlag)
}

// localPath makes CLI paths absolute so the local disk does not resolve them
// against its root.
func localPath(d storage.Disk, p string) string {
	if d.Name() != "local" {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// muestras upload <resource> <id> <asset> <file...>
var uploadCmd = &cobra.Command{
	Use:   "upload <resource> <id> <asset> <file...>",
	Short: "Attach files to a record",
	Args:  cobra.MinimumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d, err := disk(cmd)
		if err != nil {
			return err
		}
		t, err := open(ctx)
		if err != nil {
			return err
		}

		pool := workerpool.New(config.UploadConcurrency())
		defer pool.Shutdown()
		p, err := t.page(ctx, args[0], pool)
		if err != nil {
			return err
		}

		files := args[3:]
		sources := make([]pages.Source, len(files))
		for i, f := range files {
			sources[i] = pages.Source{Path: localPath(d, f)}
			if i < len(namesFlag) {
				sources[i].Name = namesFlag[i]
			}
		}
		_, err = p.Upload(ctx, args[1], args[2], d, sources)
		return err
	},
}

// muestras rm-asset <resource> <id> <asset> [index]
var rmAssetCmd = &cobra.Command{
	Use:   "rm-asset <resource> <id> <asset> [index]",
	Short: "Remove an attachment from a record",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		index := 0
		if len(args) == 4 {
			n, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			index = n
		}
		t, err := open(ctx)
		if err != nil {
			return err
		}
		p, err := t.page(ctx, args[0], nil)
		if err != nil {
			return err
		}
		return p.RemoveAsset(ctx, args[1], args[2], index)
	},
}

// muestras fetch <path> <dest>
var fetchCmd = &cobra.Command{
	Use:   "fetch <path> <dest>",
	Short: "Download a stored attachment to a disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d, err := disk(cmd)
		if err != nil {
			return err
		}
		t, err := open(ctx)
		if err != nil {
			return err
		}
		if err := t.authorize("/"); err != nil {
			return err
		}
		body, err := t.client.FetchFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer body.Close()

		dest := localPath(d, args[1])
		if err := d.Put(ctx, dest, body); err != nil {
			return err
		}
		fmt.Printf("Saved %s on %s disk\n", dest, d.Name())
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&diskFlag, "disk", "", "disk the files are read from: local or s3 (default STORAGE_DISK)")
	uploadCmd.Flags().StringArrayVar(&namesFlag, "name", nil, "display name per file, in order (repeatable)")
	fetchCmd.Flags().StringVar(&diskFlag, "disk", "", "disk to write to: local or s3 (default STORAGE_DISK)")
}
