// Package cmd is for command line interactions with the blueprint engine.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/A-Akhil/BluePrint/logger"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "blueprint",
	Short: "Cascading taxonomic classification and biodiversity metrics for deep-sea eDNA",
	Long: `Classify eDNA sequences through an ordered cascade of reference databases,
score the confidence of every assignment, flag likely novel taxa, and
summarize each sample with standard alpha-diversity indices.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.InitLogger(logger.ParseLevel(logLevel)); err != nil {
			return err
		}

		// Try load env
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env found, using local environment")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "settings file (default blueprint.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
