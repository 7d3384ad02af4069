package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/paquetes/internal/archive"
	"github.com/paquetes/internal/config"
	"github.com/paquetes/internal/registry"
	"github.com/paquetes/internal/storage"
	"github.com/paquetes/internal/work"
)

var (
	cfg      *config.Config
	db       *storage.Database
	cal      work.Calendar
	registro *registry.Registry

	archiveWG sync.WaitGroup
)

var rootCmd = &cobra.Command{
	Use:   "paquetes",
	Short: "Control de paquetes de predios con horas hábiles",
	Long: `Paquetes tracks parcel batches through the CAMPO, ENTREGAS, JURIDICO and
POSTCAMPO phases and reports expected versus real working hours per event.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		cal, err = cfg.Calendar()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
			return err
		}
		db, err = storage.New(cfg.DatabasePath)
		if err != nil {
			return err
		}
		registro = registry.New(db, cal, cfg.Now)

		// Auto-archive past months without blocking the command itself.
		// PersistentPostRunE waits on the group before closing the database.
		archiveWG.Add(1)
		go func() {
			defer archiveWG.Done()
			archiver := archive.New(db, cal, historyPath())
			archived, err := archiver.AutoArchivePastMonths()
			if err != nil {
				fmt.Fprintf(os.Stderr, "auto-archive: %v\n", err)
				return
			}
			if len(archived) > 0 {
				fmt.Printf("Auto-archived %d month(s) to %s\n", len(archived), historyPath())
			}
		}()

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		archiveWG.Wait()
		if db != nil {
			return db.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(salidaCmd)
	rootCmd.AddCommand(avanzarCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
