// Package commands implements the CLI commands for tably.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "tably",
	Short: "LLM-powered structured data extraction into tables",
	Long: `Tably turns unstructured content into tables using LLMs.

Point it at a text file, PDF, image, audio or video file, or a URL,
say what you want, and get rows back as a terminal table, CSV, JSON,
YAML or markdown. Repeat runs against unchanged inputs are served
from a local cache instead of calling the model again.

Examples:
  # Pull invoice lines out of a PDF
  tably extract -f invoice.pdf -p "Extract line items with amounts"

  # Extract from a web page, narrowed to known columns
  tably extract -f "https://example.com/pricing" --columns plan,price

  # Enforce a typed schema and save CSV
  tably extract -f products.txt -s schema.yaml -o products.csv

  # Use a specific provider and model
  tably extract -f page.html --provider openrouter -m anthropic/claude-sonnet-4`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.tably.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".tably")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("TABLY")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
