package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/datagrid-backend/internal/app"
	"github.com/yungbote/datagrid-backend/internal/ingestion"
)

var (
	configFile string
	importJSON bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "datagrid",
	Short:         "CSV dataset ingestion and query backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and exit",
	RunE:  runMigrate,
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Ingest a local CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default: $CONFIG_FILE)")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "print the result as JSON instead of YAML")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(configFile)
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig(configFile)
	if err != nil {
		return err
	}
	log, err := app.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	dbService, err := app.OpenDatabase(cfg, log)
	if err != nil {
		return err
	}
	return dbService.Close()
}

type importSummary struct {
	DatasetID string   `json:"datasetId" yaml:"dataset_id"`
	FileID    string   `json:"fileId" yaml:"file_id"`
	Name      string   `json:"name" yaml:"name"`
	RowCount  int64    `json:"rowCount" yaml:"row_count"`
	Columns   []string `json:"columns" yaml:"columns"`
	Hash      string   `json:"hash" yaml:"hash"`
	Size      int64    `json:"size" yaml:"size"`
	Batches   int      `json:"batches" yaml:"batches"`
	Storage   string   `json:"storagePath" yaml:"storage_path"`
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, err := app.LoadConfig(configFile)
	if err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Services.Pipeline.Run(cmd.Context(), ingestion.Source{
		Reader:       f,
		OriginalName: filepath.Base(path),
	})
	if err != nil {
		return err
	}
	if res.Dataset == nil || res.Upload == nil {
		return errors.New("ingestion returned no dataset")
	}

	out := importSummary{
		DatasetID: res.Dataset.ID.String(),
		FileID:    res.Upload.ID.String(),
		Name:      res.Dataset.OriginalName,
		RowCount:  res.Dataset.RowCount,
		Columns:   res.Dataset.ColumnNames(),
		Hash:      res.Upload.Hash,
		Size:      res.Upload.FileSize,
		Batches:   res.Batches,
		Storage:   res.Upload.StoragePath,
	}
	return writeSummary(cmd.OutOrStdout(), out, importJSON)
}

func writeSummary(w io.Writer, out importSummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
