// Command threadctl inspects and moves ThreadSpire's persisted data.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"threadspire/internal/config"
	"threadspire/internal/persistence"
	"threadspire/internal/storage"

	"github.com/spf13/cobra"
)

var (
	format     string
	configPath string

	rootCmd = &cobra.Command{
		Use:   "threadctl",
		Short: "Inspect and move ThreadSpire data",
		Long: `threadctl reads and writes the documents the ThreadSpire server
persists, using the same storage configuration as the server.`,
		SilenceUsage: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", formatYAML, "output format (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config-dir", "", "directory holding config.yml")

	rootCmd.AddCommand(exportCmd, importCmd, statsCmd, watchCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadConfig()
}

// openMirror opens the configured backend. The caller closes the returned
// backend.
func openMirror(ctx context.Context) (*persistence.Mirror, storage.Backend, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	backend, err := storage.Open(ctx, cfg.Storage())
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return persistence.NewMirror(backend), backend, nil
}

func closeBackend(b storage.Backend) {
	if err := b.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close storage: %v\n", err)
	}
}
