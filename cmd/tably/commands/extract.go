package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tably/tably/internal/logger"
	"github.com/tably/tably/pkg/llm"
	"github.com/tably/tably/pkg/schema"
	"github.com/tably/tably/pkg/table"
	"github.com/tably/tably/pkg/tably"
)

// formatGrid is the terminal display format. File formats live in pkg/table.
const formatGrid = "table"

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured data from a file or URL",
	Long: `Extract structured data from a file or URL using an LLM.

The source is dispatched by type: PDFs, images, audio and video files
are reduced to a text payload, web pages are fetched and stripped to
their visible text, and anything else is read as plain text. The model
then returns rows shaped by your prompt, column hints, or schema.

A schema file (JSON or YAML) gives typed, validated columns. Without
one, --columns narrows the output to named columns, and with neither
the model picks its own column names.

Examples:
  # Free-form extraction from a PDF
  tably extract -f report.pdf -p "Extract quarterly revenue by region"

  # Known columns from a web page
  tably extract -f "https://example.com/jobs" --columns title,location,salary

  # Typed schema, CSV output
  tably extract -f listings.html -s schema.yaml -o listings.csv

  # Bypass the cache for a fresh answer
  tably extract -f data.txt -p "List all dates mentioned" --no-cache`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()

	// Source input
	flags.StringP("file", "f", "", "file path or URL to extract from (required)")
	flags.StringP("prompt", "p", "", "extraction instructions")
	flags.StringSlice("columns", nil, "column names to extract (comma-separated)")
	flags.StringP("schema", "s", "", "path to schema file (JSON or YAML)")

	// LLM settings
	flags.String("provider", "", "LLM provider: openrouter, anthropic, openai, ollama (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")

	// Output settings
	flags.StringP("output", "o", "", "output file (default: stdout; extension picks the format unless --format is set)")
	flags.String("format", formatGrid, "output format: table, csv, json, jsonl, yaml, markdown")

	// Extraction settings
	flags.Bool("no-cache", false, "bypass the cache for this run")
	flags.String("cache-dir", "", "cache directory (default: user cache dir)")
	flags.Duration("timeout", 0, "request timeout (0 = provider default)")
	flags.Int("max-retries", 3, "max extraction retries")
	flags.String("max-content-size", "100KB", "max input content size (e.g., 100KB, 1MB, 0=unlimited)")

	// Required flags
	_ = extractCmd.MarkFlagRequired("file")

	// Bind to viper
	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	// Initialize logger based on flags
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Debug("extract command starting")

	source, _ := cmd.Flags().GetString("file")
	logger.Debug("source", "path", source)

	// Validate the format before any model call
	formatStr, _ := cmd.Flags().GetString("format")
	if !validFormat(formatStr) {
		logError("unknown format: %s (use table, csv, json, jsonl, yaml, or markdown)", formatStr)
		return fmt.Errorf("unknown format: %s", formatStr)
	}

	// Load schema if given. A schema wins over --columns.
	var s *schema.Schema
	if schemaPath, _ := cmd.Flags().GetString("schema"); schemaPath != "" {
		logger.Debug("loading schema", "path", schemaPath)
		loaded, err := schema.FromFile(schemaPath)
		if err != nil {
			logger.Error("failed to load schema", "error", err)
			return err
		}
		s = loaded
		logger.Debug("schema loaded", "name", s.Name, "columns", len(s.Columns))
	}
	columns, _ := cmd.Flags().GetStringSlice("columns")
	if s != nil && len(columns) > 0 {
		logger.Debug("schema provided, column hints ignored")
	}

	// Get timeout
	timeout, _ := cmd.Flags().GetDuration("timeout")
	logger.Debug("timeout", "duration", timeout)

	// Get max retries
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	logger.Debug("max retries", "retries", maxRetries)

	// Get max content size (0 or empty means unlimited)
	maxContentSizeStr, _ := cmd.Flags().GetString("max-content-size")
	var maxContentSize int
	if strings.TrimSpace(maxContentSizeStr) != "" && maxContentSizeStr != "0" {
		bytes, err := humanize.ParseBytes(maxContentSizeStr)
		if err != nil {
			logger.Error("invalid max-content-size", "value", maxContentSizeStr, "error", err)
			return err
		}
		maxContentSize = int(bytes)
	}
	logger.Debug("max content size", "bytes", maxContentSize)

	// Build provider fallback chain
	// Order: --provider flag first (if set), then config fallback_order,
	// default: openrouter → anthropic → openai → ollama
	provider, err := buildProviderChain(viper.GetString("provider"), viper.GetString("model"), timeout)
	if err != nil {
		logger.Error("failed to build provider chain", "error", err)
		return err
	}
	logger.Debug("provider chain built", "chain", provider.Name())

	clientOpts := []tably.Option{
		tably.WithLLM(provider),
		tably.WithMaxRetries(maxRetries),
		tably.WithMaxContentSize(maxContentSize),
	}
	if dir, _ := cmd.Flags().GetString("cache-dir"); dir != "" {
		clientOpts = append(clientOpts, tably.WithCacheDir(dir))
	}

	client, err := tably.New(clientOpts...)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return err
	}

	var callOpts []tably.ExtractOption
	if prompt, _ := cmd.Flags().GetString("prompt"); prompt != "" {
		callOpts = append(callOpts, tably.WithInstructions(prompt))
	}
	if s != nil {
		callOpts = append(callOpts, tably.WithSchema(s))
	} else if len(columns) > 0 {
		callOpts = append(callOpts, tably.WithColumns(columns...))
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		callOpts = append(callOpts, tably.WithoutCache())
	}

	logInfo("extracting from %s via %s", source, provider.Name())
	tbl, err := client.ReadFile(ctx, source, callOpts...)
	if err != nil {
		logger.Error("extraction failed", "source", source, "error", err)
		return err
	}
	logger.Debug("extraction complete", "rows", tbl.Len(), "columns", len(tbl.Columns()))

	// Setup output. An output path with a known extension picks its own
	// format unless --format was set explicitly.
	outPath, _ := cmd.Flags().GetString("output")
	if outPath != "" && !cmd.Flags().Changed("format") {
		if err := tbl.Save(outPath); err != nil {
			logger.Error("failed to save output", "path", outPath, "error", err)
			return err
		}
		logInfo("saved %d rows to %s", tbl.Len(), outPath)
		return nil
	}

	out := io.Writer(os.Stdout)
	if outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if formatStr == formatGrid {
		err = tbl.WriteGrid(out)
	} else {
		err = tbl.Write(out, table.Format(formatStr))
	}
	if err != nil {
		logger.Error("failed to write output", "format", formatStr, "error", err)
		return err
	}
	if outPath != "" {
		logInfo("saved %d rows to %s", tbl.Len(), outPath)
	}
	return nil
}

func validFormat(s string) bool {
	switch table.Format(s) {
	case table.FormatCSV, table.FormatJSON, table.FormatJSONL, table.FormatYAML, table.FormatMarkdown:
		return true
	}
	return s == formatGrid
}

// Default fallback order: openrouter → anthropic → openai → ollama
var defaultFallbackOrder = []string{"openrouter", "anthropic", "openai", "ollama"}

// buildProviderChain creates a fallback provider chain based on config.
// If preferredProvider is set (via --provider flag), it goes first and gets
// the --model, --api-key and --base-url overrides. Then uses fallback_order
// from config, or default: openrouter → anthropic → openai → ollama.
// Only adds providers that have API keys (except ollama which needs none).
func buildProviderChain(preferredProvider, modelOverride string, timeout time.Duration) (llm.Provider, error) {
	// Get fallback order from config, or use default
	fallbackOrder := viper.GetStringSlice("fallback_order")
	if len(fallbackOrder) == 0 {
		fallbackOrder = defaultFallbackOrder
	}

	// If preferred provider specified, put it first
	if preferredProvider != "" {
		newOrder := []string{preferredProvider}
		for _, name := range fallbackOrder {
			if name != preferredProvider {
				newOrder = append(newOrder, name)
			}
		}
		fallbackOrder = newOrder
	}

	var providers []llm.Provider
	added := make(map[string]bool)

	for _, name := range fallbackOrder {
		if added[name] {
			continue
		}
		if !llm.IsRegistered(name) {
			logger.Debug("unknown provider in fallback_order", "provider", name)
			continue
		}

		cfg := llm.Config{Timeout: timeout}
		if name == preferredProvider {
			cfg.Model = modelOverride
			cfg.APIKey = viper.GetString("api_key")
			cfg.BaseURL = viper.GetString("base_url")
		}
		if cfg.APIKey == "" {
			cfg.APIKey = llm.APIKeyFromEnv(name)
		}
		if cfg.APIKey == "" && name != "ollama" {
			continue // Skip if no API key
		}

		p, err := llm.New(name, cfg)
		if err != nil {
			logger.Debug("failed to create provider", "provider", name, "error", err)
			continue
		}
		added[name] = true
		providers = append(providers, p)
		logger.Debug("added provider to chain", "provider", name, "model", p.Model())
	}

	switch len(providers) {
	case 0:
		return nil, fmt.Errorf("no providers available - set an API key or run Ollama locally")
	case 1:
		return providers[0], nil
	default:
		return llm.NewFallback(providers...), nil
	}
}
