// Package main provides a CLI command for drafting a single post through
// the full generation pipeline.
// Usage: draft -genre travel [-length short|medium|long] [-status draft] [-skip-image] [-output json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/infra/generator"
	"blogsmith/internal/infra/media"
	"blogsmith/internal/infra/unsplash"
	"blogsmith/internal/infra/wordpress"
	"blogsmith/internal/usecase/autopost"
	"blogsmith/internal/usecase/photo"
	"blogsmith/internal/usecase/pipeline"
	"blogsmith/internal/usecase/publish"
)

// draftTimeout bounds the whole run. Four generation calls plus the publish
// workflow fit comfortably; a stuck provider should not hang the terminal.
const draftTimeout = 10 * time.Minute

// DraftOutput represents the JSON output format for a drafted post.
type DraftOutput struct {
	Genre       string `json:"genre"`
	Title       string `json:"title"`
	PostID      int64  `json:"post_id"`
	Status      string `json:"status"`
	ImageStatus string `json:"image_status"`
	EditLink    string `json:"edit_link,omitempty"`
}

func main() {
	// Parse command-line arguments
	var (
		genre        string
		lengthType   string
		status       string
		skipImage    bool
		outputFormat string
	)

	flag.StringVar(&genre, "genre", "", "Genre to draft a post for (required)")
	flag.StringVar(&lengthType, "length", entity.LengthMedium, "Article length: short, medium or long")
	flag.StringVar(&status, "status", autopost.DefaultStatus, "Post status handed to the CMS")
	flag.BoolVar(&skipImage, "skip-image", false, "Skip the featured-image lookup")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.Parse()

	if genre == "" {
		fmt.Fprintln(os.Stderr, "Error: -genre is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: draft -genre GENRE [-length short|medium|long] [-status draft] [-skip-image] [-output json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  draft -genre travel")
		fmt.Fprintln(os.Stderr, "  draft -genre cooking -length short")
		fmt.Fprintln(os.Stderr, "  draft -genre technology -status publish -skip-image")
		fmt.Fprintln(os.Stderr, "  draft -genre travel -output json")
		os.Exit(1)
	}

	switch lengthType {
	case entity.LengthShort, entity.LengthMedium, entity.LengthLong:
	default:
		fmt.Fprintf(os.Stderr, "Error: Invalid length '%s' (must be 'short', 'medium' or 'long')\n", lengthType)
		os.Exit(1)
	}

	_ = godotenv.Load() // Ignore error if .env doesn't exist

	// Initialize logger
	logger := initLogger()

	svc, editLink := setupDraftService(logger, lengthType, status, skipImage)

	// Execute the pipeline with timeout
	ctx, cancel := context.WithTimeout(context.Background(), draftTimeout)
	defer cancel()

	logger.Info("Drafting post",
		slog.String("genre", genre),
		slog.String("length", lengthType),
		slog.String("status", status))

	draft, err := svc.DraftGenre(ctx, genre)
	if err != nil {
		logger.Error("draft failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: Draft failed: %v\n", err)
		os.Exit(1)
	}

	// Output results
	if outputFormat == "json" {
		outputJSON(draft, status, editLink(draft.Post.PostID))
	} else {
		outputText(draft, status, editLink(draft.Post.PostID))
	}
}

// setupDraftService wires the pipeline dependencies for a single run and
// returns the service together with an edit-link builder. No notification
// service is wired: the operator sees the edit link directly.
func setupDraftService(logger *slog.Logger, lengthType, status string, skipImage bool) (*autopost.Service, func(int64) string) {
	gen := createGenerator(logger)

	var photos autopost.PhotoFinder
	if skipImage {
		logger.Info("photo lookup skipped")
	} else {
		unsplashConfig, err := unsplash.LoadConfig()
		if err != nil {
			logger.Warn("photo lookup disabled", slog.Any("error", err))
		} else {
			photos = &photo.Service{Finder: unsplash.NewClient(unsplashConfig)}
		}
	}

	wordpressConfig, err := wordpress.LoadConfig()
	if err != nil {
		logger.Error("failed to load WordPress configuration", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: Failed to load WordPress configuration: %v\n", err)
		os.Exit(1)
	}
	wpClient := wordpress.NewClient(wordpressConfig)

	publishSvc := &publish.Service{
		Poster:   wpClient,
		Images:   media.NewDownloader(media.DefaultDownloadConfig()),
		Renderer: publish.NewContentRendererFromEnv(),
	}

	svc := &autopost.Service{
		Generator:  &pipeline.Service{Generator: gen},
		Photos:     photos,
		Publisher:  publishSvc,
		LengthType: lengthType,
		Status:     status,
	}
	return svc, wpClient.EditLink
}

// createGenerator creates a generation provider based on the GENERATOR_TYPE
// environment variable.
func createGenerator(logger *slog.Logger) pipeline.TextGenerator {
	generatorType := os.Getenv("GENERATOR_TYPE")
	if generatorType == "" {
		generatorType = "openai"
	}

	switch generatorType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(os.Stderr, "Error: OPENAI_API_KEY is required when GENERATOR_TYPE=openai")
			os.Exit(1)
		}
		config, err := generator.LoadOpenAIConfig()
		if err != nil {
			logger.Error("failed to load OpenAI configuration", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: Failed to load OpenAI configuration: %v\n", err)
			os.Exit(1)
		}
		return generator.NewOpenAI(apiKey, config)
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(os.Stderr, "Error: ANTHROPIC_API_KEY is required when GENERATOR_TYPE=claude")
			os.Exit(1)
		}
		return generator.NewClaude(apiKey)
	default:
		fmt.Fprintf(os.Stderr, "Error: Invalid GENERATOR_TYPE '%s' (must be 'openai' or 'claude')\n", generatorType)
		os.Exit(1)
		return nil
	}
}

// outputText prints the drafted post in human-readable format.
func outputText(draft autopost.Draft, status, editLink string) {
	fmt.Printf("Draft created for genre %q\n\n", draft.Genre)
	fmt.Printf("Title:  %s\n", draft.Title)
	fmt.Printf("Post:   %d (%s)\n", draft.Post.PostID, status)
	fmt.Printf("Image:  %s\n", draft.Post.ImageStatus)
	if editLink != "" {
		fmt.Printf("Edit:   %s\n", editLink)
	}
}

// outputJSON prints the drafted post in JSON format.
func outputJSON(draft autopost.Draft, status, editLink string) {
	output := DraftOutput{
		Genre:       draft.Genre,
		Title:       draft.Title,
		PostID:      draft.Post.PostID,
		Status:      status,
		ImageStatus: string(draft.Post.ImageStatus),
		EditLink:    editLink,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
}

// initLogger initializes and returns a structured logger. Logs go to stderr
// so stdout stays clean for the command output.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}
