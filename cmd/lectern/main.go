package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/lectern-ai/lectern/config"
	"github.com/lectern-ai/lectern/internal/documents"
	"github.com/lectern-ai/lectern/internal/embeddings"
	"github.com/lectern-ai/lectern/internal/engine"
	"github.com/lectern-ai/lectern/internal/eval"
	"github.com/lectern-ai/lectern/internal/ollama"
	"github.com/lectern-ai/lectern/internal/store"
	"github.com/lectern-ai/lectern/internal/store/memory"
	"github.com/lectern-ai/lectern/internal/store/pgvector"
	"github.com/lectern-ai/lectern/internal/store/qdrant"
	"github.com/lectern-ai/lectern/internal/telemetry"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)

func main() {
	var (
		ingestFlag        = flag.Bool("ingest", false, "Ingest documents from the configured documents directory")
		queryFlag         = flag.String("query", "", "Ask a question")
		evalFlag          = flag.String("eval", "", "Run an evaluation: simple, retrieval, prompts or full")
		statsFlag         = flag.Bool("stats", false, "Show vector store statistics")
		forceRecreateFlag = flag.Bool("force-recreate", false, "Drop and rebuild the collection during ingest")
		addFlag           = flag.String("add", "", "Add a single document file to the collection")
		modelsFlag        = flag.Bool("models", false, "List available Ollama models")
	)
	flag.Parse()

	// Environment overrides (API keys) come from .env when present.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, options{
		ingest:        *ingestFlag,
		query:         *queryFlag,
		eval:          *evalFlag,
		stats:         *statsFlag,
		forceRecreate: *forceRecreateFlag,
		add:           *addFlag,
		models:        *modelsFlag,
	}); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}

type options struct {
	ingest        bool
	query         string
	eval          string
	stats         bool
	forceRecreate bool
	add           string
	models        bool
}

func run(cfg *config.Config, opts options) error {
	ctx := context.Background()

	if opts.models {
		return listModels(ctx, cfg)
	}

	manager, err := buildManager(cfg)
	if err != nil {
		return err
	}

	switch {
	case opts.ingest:
		return runIngest(ctx, manager, cfg, opts.forceRecreate)
	case opts.add != "":
		return runAdd(ctx, manager, cfg, opts.add)
	case opts.stats:
		return runStats(ctx, manager, cfg)
	case opts.query != "":
		return runQuery(ctx, manager, cfg, opts.query)
	case opts.eval != "":
		return runEval(ctx, manager, cfg, opts.eval)
	}

	flag.Usage()
	return nil
}

func buildManager(cfg *config.Config) (*store.Manager, error) {
	var backend store.Backend
	switch cfg.Store.Backend {
	case "qdrant":
		backend = qdrant.New(qdrant.Config{
			URL:    cfg.Qdrant.URL,
			APIKey: cfg.Qdrant.APIKey,
		})
	case "pgvector":
		var err error
		backend, err = pgvector.New(cfg.Postgres.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	case "memory":
		backend = memory.New()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	processor, err := documents.NewProcessor(cfg.Processing.ChunkSize, cfg.Processing.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking configuration: %w", err)
	}

	return store.NewManager(store.ManagerConfig{
		Backend:      backend,
		Embedder:     embedder,
		Collection:   cfg.Store.Collection,
		Ingester:     processor,
		DocumentsDir: cfg.Paths.DocumentsDir,
	}), nil
}

func buildEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Embeddings.Provider {
	case "ollama":
		return embeddings.NewOllamaEmbedder(cfg.Ollama.BaseURL, cfg.Ollama.EmbeddingModel), nil
	case "openai":
		return embeddings.NewOpenAIEmbedder(embeddings.OpenAIConfig{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.EmbeddingModel,
		})
	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", cfg.Embeddings.Provider)
	}
}

func buildEngine(manager *store.Manager, cfg *config.Config) (*engine.Engine, error) {
	client := ollama.NewClient(cfg.Ollama.BaseURL)
	generator := ollama.NewGenerator(client, cfg.Ollama.Model, cfg.Ollama.Temperature)

	recorder, err := telemetry.NewStore(cfg.Paths.TelemetryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry store: %w", err)
	}

	return engine.New(engine.Config{
		Retriever:  manager,
		Generator:  generator,
		Recorder:   recorder,
		Prompt:     engine.PromptByKey(cfg.Retrieval.Prompt),
		K:          cfg.Retrieval.TopK,
		SearchType: store.SearchType(cfg.Retrieval.SearchType),
	}), nil
}

func runIngest(ctx context.Context, manager *store.Manager, cfg *config.Config, forceRecreate bool) error {
	if forceRecreate {
		// Recreation needs the records up front: re-chunk the documents
		// directory before dropping the collection.
		processor, err := documents.NewProcessor(cfg.Processing.ChunkSize, cfg.Processing.ChunkOverlap)
		if err != nil {
			return err
		}
		records, err := processor.ProcessDirectory(cfg.Paths.DocumentsDir)
		if err != nil {
			return fmt.Errorf("failed to process documents directory: %w", err)
		}
		if err := manager.Initialize(ctx, records, true); err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
	} else if err := manager.Initialize(ctx, nil, false); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	result := manager.Stats(ctx)
	if result.Info != nil {
		fmt.Println(titleStyle.Render("Ingest complete"))
		fmt.Printf("Collection: %s\nPoints: %d\nDimension: %d\n",
			result.Info.Name, result.Info.PointCount, result.Info.Dimension)
	}
	return nil
}

func runAdd(ctx context.Context, manager *store.Manager, cfg *config.Config, path string) error {
	processor, err := documents.NewProcessor(cfg.Processing.ChunkSize, cfg.Processing.ChunkOverlap)
	if err != nil {
		return err
	}
	records, err := processor.ProcessDocument(path, "")
	if err != nil {
		return fmt.Errorf("failed to process %s: %w", path, err)
	}
	if err := manager.Add(ctx, records); err != nil {
		return fmt.Errorf("failed to add %s: %w", path, err)
	}
	fmt.Printf("Added %d chunks from %s\n", len(records), path)
	return nil
}

func runStats(ctx context.Context, manager *store.Manager, cfg *config.Config) error {
	if _, err := manager.Load(ctx); err != nil {
		return err
	}
	result := manager.Stats(ctx)
	fmt.Println(titleStyle.Render("Vector Store Statistics"))
	if result.Degraded != "" {
		fmt.Println(result.Degraded)
	} else {
		fmt.Printf("Collection: %s\nPoints: %d\nDimension: %d\n",
			result.Info.Name, result.Info.PointCount, result.Info.Dimension)
	}

	recorder, err := telemetry.NewStore(cfg.Paths.TelemetryFile)
	if err != nil {
		return fmt.Errorf("failed to open telemetry store: %w", err)
	}
	queries := recorder.InteractionStats()
	feedback := recorder.FeedbackStats()
	fmt.Println()
	fmt.Println(titleStyle.Render("Usage"))
	fmt.Printf("Queries Logged: %d\n", queries.TotalQueries)
	if queries.TotalQueries > 0 {
		fmt.Printf("Avg Response Time: %.2fs\n", queries.AvgResponseTime)
		fmt.Printf("Avg Sources Retrieved: %.1f\n", queries.AvgSourcesCount)
	}
	fmt.Printf("Feedback Entries: %d\n", feedback.TotalFeedback)
	if feedback.TotalFeedback > 0 {
		fmt.Printf("Positive: %.1f%%\n", feedback.PositivePercentage)
	}
	return nil
}

func runQuery(ctx context.Context, manager *store.Manager, cfg *config.Config, question string) error {
	if err := manager.Initialize(ctx, nil, false); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	e, err := buildEngine(manager, cfg)
	if err != nil {
		return err
	}

	result := e.Query(ctx, question)
	fmt.Println(titleStyle.Render("Answer"))
	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println()
		fmt.Println(titleStyle.Render("Sources"))
		for i, s := range result.Sources {
			fmt.Println(sourceStyle.Render(fmt.Sprintf("%d. %s (chunk %d)", i+1, s.Source, s.ChunkIndex)))
			fmt.Printf("   %s\n", s.Preview)
		}
	}
	return nil
}

func runEval(ctx context.Context, manager *store.Manager, cfg *config.Config, mode string) error {
	if err := manager.Initialize(ctx, nil, false); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	switch mode {
	case "retrieval":
		report, err := eval.EvaluateRetrieval(ctx, manager, nil)
		if err != nil {
			return err
		}
		printRetrievalReport(report)
		return eval.SaveReport("retrieval_evaluation_results.json", report)

	case "prompts":
		client := ollama.NewClient(cfg.Ollama.BaseURL)
		generator := ollama.NewGenerator(client, cfg.Ollama.Model, cfg.Ollama.Temperature)
		report := eval.EvaluatePrompts(ctx, manager, generator, nil)
		printPromptReport(report)
		return eval.SaveReport("llm_evaluation_results.json", report)

	case "full":
		e, err := buildEngine(manager, cfg)
		if err != nil {
			return err
		}
		report := eval.EvaluateFull(ctx, e, nil)
		printFullReport(report)
		return eval.SaveReport("evaluation_results.json", report)

	case "simple":
		e, err := buildEngine(manager, cfg)
		if err != nil {
			return err
		}
		questions := make([]string, 0)
		for _, q := range eval.DefaultQuestions() {
			questions = append(questions, q.Question)
		}
		report := eval.EvaluateSimple(ctx, e, questions)
		fmt.Println(titleStyle.Render("Simple Evaluation"))
		fmt.Printf("Total Questions: %d\n", report.TotalQuestions)
		fmt.Printf("Success Rate: %.1f%%\n", report.SuccessRate*100)
		fmt.Printf("Avg Sources Retrieved: %.1f\n", report.AverageSourcesRetrieved)
		return nil

	default:
		return fmt.Errorf("unknown evaluation mode %q (want simple, retrieval, prompts or full)", mode)
	}
}

func printRetrievalReport(report *eval.RetrievalReport) {
	fmt.Println(titleStyle.Render("Retrieval Evaluation"))
	for _, a := range report.Approaches {
		fmt.Printf("\n%s\n", a.Name)
		fmt.Printf("  Precision: %.2f%%\n", a.Metrics.OverallPrecision*100)
		fmt.Printf("  Keyword Score: %.2f\n", a.Metrics.AvgKeywordScore)
		fmt.Printf("  Combined Score: %.4f\n", a.CombinedScore)
	}
	fmt.Printf("\nBest: %s (%.4f)\n", report.BestApproach, report.BestScore)
}

func printPromptReport(report *eval.PromptReport) {
	fmt.Println(titleStyle.Render("Prompt Evaluation"))
	for _, e := range report.Evaluations {
		fmt.Printf("\n%s\n", e.PromptName)
		fmt.Printf("  Average Quality Score: %.2f/10\n", e.AverageQualityScore)
		fmt.Printf("  Average Word Count: %.1f\n", e.AverageWordCount)
	}
	fmt.Printf("\nBest: %s (%.2f/10)\n", report.BestPrompt, report.BestScore)
}

func printFullReport(report *eval.FullReport) {
	fmt.Println(titleStyle.Render("Evaluation Summary"))
	fmt.Printf("Total Questions: %d\n", report.TotalQuestions)
	fmt.Printf("Success Rate: %.1f%%\n", report.SuccessRate*100)
	fmt.Printf("Avg Response Time: %.2fs\n", report.AvgResponseTime)
	fmt.Printf("Avg Sources Retrieved: %.1f\n", report.AvgSourcesRetrieved)
	fmt.Printf("Avg Keyword Relevance: %.1f%%\n", report.AvgKeywordRelevance*100)
	fmt.Printf("Avg Overall Quality: %.1f%%\n", report.AvgOverallQuality*100)

	fmt.Println("\nCategory Breakdown")
	for category, stats := range report.CategoryBreakdown {
		fmt.Printf("%s:\n", titleCase(strings.ReplaceAll(category, "_", " ")))
		fmt.Printf("  Questions: %d\n", stats.Count)
		fmt.Printf("  Success Rate: %.1f%%\n", stats.SuccessRate*100)
		fmt.Printf("  Avg Quality: %.1f%%\n", stats.AvgQuality*100)
		fmt.Printf("  Avg Sources: %.1f\n", stats.AvgSources)
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func listModels(ctx context.Context, cfg *config.Config) error {
	client := ollama.NewClient(cfg.Ollama.BaseURL)
	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	fmt.Println(titleStyle.Render("Ollama Models"))
	if len(models) == 0 {
		fmt.Println("No models found. Make sure Ollama is running.")
		return nil
	}
	for _, m := range models {
		fmt.Printf("  %s (%.1f GB)\n", m.Name, float64(m.Size)/1e9)
	}
	return nil
}
