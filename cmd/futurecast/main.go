package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"futurecast/internal/config"
	"futurecast/internal/llm"
	"futurecast/internal/logging"
	"futurecast/internal/pipeline"
	"futurecast/internal/render"
	"futurecast/internal/server"
	"futurecast/internal/store"
	"futurecast/internal/topics"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	topicFlag  string
	addrFlag   string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "futurecast",
	Short: "futurecast - schema-constrained scenario elaboration",
	Long: `futurecast elaborates a single topic into structured, multi-faceted
scenario documents by repeatedly querying a language model under strict
output schemas, renders the result as Markdown, and serves the latest
run over HTTP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize("."); err != nil {
			logger.Warn("file logging unavailable", zap.Error(err))
		}
		logging.Boot("futurecast starting: cmd=%s", cmd.Name())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context())
	},
}

// runCmd executes one pipeline run, then serves the result.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scenario pipeline for a topic, then serve the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context())
	},
}

// serveCmd serves the run history without starting a new run.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query endpoint without running the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := store.NewRunStore(cfg.Store.DocsDir, cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		return serveUntilSignal(cmd.Context(), cfg, st)
	},
}

// topicsCmd prints auto-generated candidate topics.
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Generate candidate topics without running the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		client := newClient(cfg)
		candidates, err := topics.Generate(cmd.Context(), client, topics.DefaultCount)
		if err != nil {
			return err
		}
		for i, t := range candidates {
			fmt.Printf("%d: %s\n", i, t)
		}
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if addrFlag != "" {
		cfg.Server.Addr = addrFlag
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *llm.OpenAIClient {
	return llm.NewOpenAIClientWithConfig(llm.OpenAIConfig{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Timeout:        cfg.GetLLMTimeout(),
		MaxRetries:     cfg.LLM.MaxRetries,
		RequestSpacing: cfg.GetRequestSpacing(),
	})
}

// resolveTopic obtains the run topic: the --topic flag, then free-text
// input, then auto-generated candidates with interactive selection.
func resolveTopic(ctx context.Context, client llm.Client) (string, error) {
	if strings.TrimSpace(topicFlag) != "" {
		return strings.TrimSpace(topicFlag), nil
	}

	fmt.Print("Enter a scenario topic (or press Enter for generated topics): ")
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read topic: %w", err)
	}
	input = strings.TrimSpace(input)
	if input != "" {
		return input, nil
	}

	candidates, err := topics.Generate(ctx, client, topics.DefaultCount)
	if err != nil {
		return "", err
	}
	selector := topics.DefaultSelector()
	return selector.Select(candidates)
}

func runPipeline(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := newClient(cfg)

	topic, err := resolveTopic(ctx, client)
	if err != nil {
		return err
	}

	logger.Info("starting run", zap.String("topic", topic))
	fmt.Printf("Generating scenarios based on: %s\n", topic)

	orch := pipeline.New(client, pipeline.Options{
		ScenarioCount: cfg.Pipeline.ScenarioCount,
		MaxInFlight:   cfg.Pipeline.MaxInFlight,
	})

	run, err := orch.Run(ctx, topic)
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return err
	}

	doc := render.Markdown(run)
	logging.Render("document assembled: %d bytes across %d scenario(s)", len(doc), len(run.Scenarios))

	st, err := store.NewRunStore(cfg.Store.DocsDir, cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	path, err := st.Commit(run, doc)
	if err != nil {
		return err
	}
	logger.Info("run committed",
		zap.String("id", run.ID),
		zap.String("doc", path),
		zap.Int("scenarios", len(run.Scenarios)),
		zap.Int("items", run.ItemCount()),
	)
	fmt.Printf("Document saved to %s\n", path)

	printPreview(doc)

	return serveUntilSignal(ctx, cfg, st)
}

// printPreview renders the document for the terminal; falls back to
// plain output if styled rendering fails.
func printPreview(doc string) {
	out, err := glamour.Render(doc, "auto")
	if err != nil {
		fmt.Println(doc)
		return
	}
	fmt.Print(out)
}

func serveUntilSignal(ctx context.Context, cfg *config.Config, st *store.RunStore) error {
	srv := server.New(cfg.Server.Addr, st)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Printf("Serving latest run at http://localhost%s/api/scenarios\n", displayAddr(cfg.Server.Addr))

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return addr
	}
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return addr
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".futurecast/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&topicFlag, "topic", "", "run topic (skips the interactive prompt)")
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "query endpoint listen address (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(topicsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
