package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sahilchouksey/prof-ratings/config"
	"github.com/sahilchouksey/prof-ratings/database"
	"github.com/sahilchouksey/prof-ratings/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	driver     string
	sqlitePath string
	only       string
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the ratings database with sample data",
	Long: "Creates sample universities, courses, professors and reviews. " +
		"Tables that already have rows are left alone, so running it twice is safe.",
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	rootCmd.Flags().StringVar(&driver, "driver", "", "database driver, postgres or sqlite (default from DB_DRIVER)")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite-path", "", "SQLite file (default from SQLITE_PATH)")
	rootCmd.Flags().StringVar(&only, "only", "", "seed one table: universities, courses, professors or reviews")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if err := config.LoadENV(); err != nil {
		return err
	}
	getEnv, err := config.Get()
	if err != nil {
		return err
	}
	if driver != "" {
		getEnv.DB_DRIVER = strings.ToLower(driver)
	}
	if sqlitePath != "" {
		getEnv.SQLITE_PATH = sqlitePath
	}
	if getEnv.DB_DRIVER == "pq" {
		// same tables, the seeder just needs GORM to write them
		getEnv.DB_DRIVER = "postgres"
	}

	log, err := utils.NewLogger(getEnv.GO_ENV, getEnv.LOG_LEVEL)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, err := database.StartGORM(getEnv, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	seeder := database.NewSeeder(store.DB(), log)
	steps := map[string]func() error{
		"universities": seeder.SeedUniversities,
		"courses":      seeder.SeedCourses,
		"professors":   seeder.SeedProfessors,
		"reviews":      seeder.SeedReviews,
	}

	if only != "" {
		step, ok := steps[only]
		if !ok {
			return fmt.Errorf("unknown table %q", only)
		}
		if err := step(); err != nil {
			return fmt.Errorf("seeding %s failed: %w", only, err)
		}
	} else if err := seeder.SeedAll(); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	log.Info("seeding completed", zap.String("driver", getEnv.DB_DRIVER))
	fmt.Fprintln(cmd.OutOrStdout(), "Seeding completed successfully")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
