package main

import (
	"fmt"
	"os"

	"threadspire/internal/persistence"

	"github.com/spf13/cobra"
)

var (
	outPath string

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write every persisted document to stdout or a file",
		RunE:  runExport,
	}

	importCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the persisted documents with the contents of an export",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
)

func init() {
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file instead of stdout")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	mirror, backend, err := openMirror(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(backend)

	dump, err := mirror.Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	w := cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return encode(w, dump, format)
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var dump persistence.Dump
	if err := decode(f, &dump, format); err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}

	ctx := cmd.Context()
	mirror, backend, err := openMirror(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(backend)

	if err := mirror.Import(ctx, dump); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d threads, %d collections, %d accounts\n",
		len(dump.Threads), len(dump.Collections), len(dump.RegisteredUsers))
	return nil
}
