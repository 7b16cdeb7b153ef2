package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/signbridge/glovepipe/pkg/kv"
	"github.com/signbridge/glovepipe/pkg/storage"
	"github.com/signbridge/glovepipe/pkg/tts"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the speech cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached speech audio and index entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg)

		store, err := storage.NewLocal(filepath.Join(cfg.DataDir, "cache"))
		if err != nil {
			return fmt.Errorf("open cache store: %w", err)
		}
		index, err := kv.NewBadger(kv.BadgerOptions{Dir: filepath.Join(cfg.DataDir, "index")})
		if err != nil {
			return fmt.Errorf("open cache index: %w", err)
		}
		defer index.Close()

		cache := tts.NewCache(store, index, nil)
		n, err := cache.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("removed %d cached files\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
