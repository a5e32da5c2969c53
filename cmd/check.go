package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"vinylfm/config"
	"vinylfm/server"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured storage backends",
	Long:  `Connect to the configured blob store and library store and report whether a library document exists.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Blob driver: %s, library store: %s\n", cfg.BlobDriver, cfg.LibraryStore)

		if _, err := server.NewBlobStore(cfg); err != nil {
			log.Fatalf("Blob store unavailable: %v", err)
		}
		fmt.Println("Blob store OK")

		repo, err := server.NewLibraryRepository(cfg)
		if err != nil {
			log.Fatalf("Library store unavailable: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		lib, exists, err := repo.Load(ctx)
		if err != nil {
			log.Fatalf("Loading library failed: %v", err)
		}
		if exists {
			fmt.Printf("Library OK: %d vinyls, %d tracks\n", len(lib.Vinyls), len(lib.Tracks))
		} else {
			fmt.Println("Library OK: no document yet (empty library)")
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
