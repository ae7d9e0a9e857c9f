package ctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvoronin/parceltrack/internal/server/config"
	"github.com/mvoronin/parceltrack/internal/server/repositories/repomanager"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func resolveDSN() string {
	if dsn != "" {
		return dsn
	}
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg.DatabaseDSN
}

func runMigrate(cmd *cobra.Command, args []string) error {

	// The manager runs migrations on construction.
	rm, err := repomanager.NewPostgresRepositoryManager(cmd.Context(), resolveDSN())
	if err != nil {
		return err
	}
	defer rm.Close()

	fmt.Println("migrations applied")
	return nil
}
