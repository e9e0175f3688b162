package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docqa/internal/answer"
	"docqa/internal/audit"
	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/helper"
	"docqa/internal/index"
	"docqa/internal/llm"
	"docqa/internal/loader"
	"docqa/internal/models"
	"docqa/internal/rag"
)

const configFilePath = "./configs/config.yaml"

type questionFlags []string

func (q *questionFlags) String() string { return strings.Join(*q, "; ") }

func (q *questionFlags) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("question cannot be empty")
	}
	*q = append(*q, v)
	return nil
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	var questions questionFlags
	docRef := flag.String("doc", "", "Document URL or local file path")
	kindFlag := flag.String("kind", "", "Optional document kind hint: resume or generic")
	cfgPath := flag.String("config", configFilePath, "Path to the config file")
	flag.Var(&questions, "q", "Question to answer (repeat for multiple)")
	flag.Parse()

	if *docRef == "" || len(questions) == 0 {
		log.Fatal().Msg("Please provide a document using -doc and at least one question using -q")
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Msg("Loaded config")
	helper.PrettyPrint(cfg.RAG)

	ctx := context.Background()

	doc, err := loader.New().Load(ctx, *docRef)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading document")
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	client, err := llm.NewClient(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing llm client")
	}

	build := index.BuildMemory
	if cfg.RAG.IndexBackend == "chromem" {
		build = index.BuildChromem
	}

	orch := answer.New(client, answer.Config{
		MaxRetries:    cfg.RAG.MaxRetries,
		Backoff:       answer.Backoff{Initial: time.Duration(cfg.RAG.RetryDelayMS) * time.Millisecond, Factor: 2, Max: 10 * time.Second},
		QuestionDelay: time.Duration(cfg.RAG.QuestionDelayMS) * time.Millisecond,
	})

	pipeline := rag.NewPipeline(
		chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		embedder,
		build,
		orch,
		cfg.RAG.TopK,
		cfg.RAG.MaxContextChars,
		cfg.RAG.MaxQuestions,
	)

	answers, err := pipeline.Run(ctx, doc.Text, questions, parseKind(*kindFlag))
	if err != nil {
		log.Fatal().Err(err).Msg("Error running pipeline")
	}

	for _, qa := range answers {
		log.Info().Msg("Question: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		fmt.Printf("%s\n\n", qa.Question)
		log.Info().Msg("Answer: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		fmt.Printf("%s\n\n", qa.Answer)
	}

	if cfg.Database.Enabled {
		saveAudit(ctx, cfg, doc, answers)
	}
}

func newEmbedder(cfg *config.Config) (embedding.Provider, error) {
	if cfg.EmbedLLM.Provider == "ollama" {
		return embedding.NewOllamaProvider(&cfg.EmbedLLM)
	}
	return embedding.NewOpenAIProvider(&cfg.EmbedLLM)
}

func parseKind(s string) models.DocumentKind {
	switch strings.ToLower(s) {
	case "resume":
		return models.KindResume
	case "generic":
		return models.KindGeneric
	default:
		return models.KindUnknown
	}
}

func saveAudit(ctx context.Context, cfg *config.Config, doc models.Document, answers []models.QuestionAnswer) {
	store, err := audit.Connect(&cfg.Database)
	if err != nil {
		log.Error().Err(err).Msg("Error connecting to audit store")
		return
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		log.Error().Err(err).Msg("Error initializing audit store")
		return
	}

	sessionID, err := helper.NewSessionID()
	if err != nil {
		log.Error().Err(err).Msg("Error generating session id")
		return
	}
	if err := store.Save(ctx, sessionID, doc.Title, answers); err != nil {
		log.Error().Err(err).Msg("Error saving audit records")
		return
	}
	log.Info().Str("session", sessionID).Int("answers", len(answers)).Msg("Audit records saved")
}
