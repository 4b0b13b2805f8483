// Package play implements the interactive console mode of the interrogation
// game. It drives the same service layer as the web API, so transcripts and
// clue unlocks land in the same database.
package play

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mkarvo/yachtmurder/internal/ai"
	"github.com/mkarvo/yachtmurder/internal/envstruct"
	"github.com/mkarvo/yachtmurder/internal/errors"
	"github.com/mkarvo/yachtmurder/internal/gamedata"
	"github.com/mkarvo/yachtmurder/internal/interrogation"
	"github.com/mkarvo/yachtmurder/internal/logging"
	"github.com/mkarvo/yachtmurder/internal/repositories"
	"github.com/mkarvo/yachtmurder/internal/sqlite"
	"github.com/mkarvo/yachtmurder/internal/util"
	"github.com/spf13/cobra"
)

const (
	finalDay          = 3
	questionsPerVisit = 5
	topSuspectsPerDay = 3
)

var Group = &cobra.Group{
	ID:    "game",
	Title: "Game operations",
}

type configuration struct {
	SQLiteURL      string        `env:"YACHTMURDER_SQLITE_URL" envDefault:"./yachtmurder.sqlite"`
	DataDir        string        `env:"YACHTMURDER_DATA_DIR" envDefault:"./data"`
	OpenAIAPIKey   string        `env:"OPENAI_API_KEY"`
	Model          string        `env:"YACHTMURDER_MODEL" envDefault:"gpt-3.5-turbo"`
	MaxRetries     int           `env:"YACHTMURDER_MAX_RETRIES" envDefault:"3"`
	InitialBackoff time.Duration `env:"YACHTMURDER_INITIAL_BACKOFF" envDefault:"1s"`
	MaxBackoff     time.Duration `env:"YACHTMURDER_MAX_BACKOFF" envDefault:"10s"`
	RequestTimeout time.Duration `env:"YACHTMURDER_REQUEST_TIMEOUT" envDefault:"30s"`
}

var Play = &cobra.Command{
	Use:     "play",
	GroupID: "game",
	Short:   "Play in detective mode",
	Long:    `Runs the three-day interrogation game in the terminal`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})))
		return runGame(cmd.Context(), logger, os.LookupEnv, os.Stdin, os.Stdout)
	},
}

// game holds everything one console session needs. Input and output are
// injected so the loop can be exercised without a terminal.
type game struct {
	service   *interrogation.Service
	gameState *repositories.GameStateRepository
	playerID  string
	suspects  []string
	in        *bufio.Scanner
	out       io.Writer
}

func runGame(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool), in io.Reader, out io.Writer) error {
	var cfg configuration
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse configuration")
	}

	dbs, err := sqlite.NewDatabase(ctx, cfg.SQLiteURL, logger)
	if err != nil {
		return errors.Wrap(err, "connect to database", slog.String("url", cfg.SQLiteURL))
	}
	defer func() {
		_ = dbs.Close()
	}()

	loader := gamedata.NewLoader(cfg.DataDir, logger)
	if _, err = loader.LoadTemplate(); err != nil {
		return errors.Wrap(err, "verify content store", slog.String("dataDir", cfg.DataDir))
	}
	suspects, err := loader.Suspects()
	if err != nil {
		return errors.Wrap(err, "list suspects")
	}

	aiClient := ai.NewClient(ai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		Model:          cfg.Model,
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		RequestTimeout: cfg.RequestTimeout,
	}, logger)

	g := game{
		service:   interrogation.NewService(loader, aiClient, logger),
		gameState: repositories.NewGameStateRepository(dbs, logger),
		playerID:  uuid.NewString(),
		suspects:  suspects,
		in:        bufio.NewScanner(in),
		out:       out,
	}
	return g.run(ctx)
}

func (g *game) run(ctx context.Context) error {
	g.printf("🎯 Welcome to Yacht Murder: Detective Mode\n")

	for {
		day, err := g.gameState.CurrentDay(ctx, g.playerID)
		if err != nil {
			return errors.Wrap(err, "read current day")
		}
		if day > finalDay {
			break
		}
		g.printf("\n🌅 Day %d begins. You may interrogate any suspect.\n", day)

		quit, err := g.playDay(ctx, day)
		if err != nil {
			return err
		}
		if quit {
			g.printf("\nThank you for playing! Goodbye!\n")
			return nil
		}

		if err = g.unlockDailyClues(ctx, day); err != nil {
			return err
		}
		if _, err = g.gameState.AdvanceDay(ctx, g.playerID); err != nil {
			return errors.Wrap(err, "advance day")
		}
	}

	g.printf("\n🕵️ Final Accusation Time!\n")
	guess := strings.ToLower(g.prompt("Who do you accuse of the murder? "))
	g.printf("🎬 You accused: %s\n", util.Capitalize(guess))
	g.printf("✅ Thanks for playing!\n")
	return nil
}

// playDay runs the interrogation rounds for one day. It reports whether the
// player asked to quit the whole game.
func (g *game) playDay(ctx context.Context, day int) (bool, error) {
	interviewed := make(map[string]bool, len(g.suspects))

	for len(interviewed) < len(g.suspects) {
		g.printf("\nAvailable suspects:\n")
		for _, suspect := range g.suspects {
			if !interviewed[suspect] {
				g.printf("- %s\n", util.Capitalize(suspect))
			}
		}
		chosen := strings.ToLower(g.prompt("Who would you like to interrogate? (type 'done' to skip, 'exit' to quit): "))
		if chosen == "done" {
			return false, nil
		}
		if chosen == "exit" {
			return true, nil
		}
		if !slices.Contains(g.suspects, chosen) || interviewed[chosen] {
			g.printf("Invalid suspect name. Please try again.\n")
			continue
		}

		if err := g.interrogate(ctx, day, chosen); err != nil {
			return false, err
		}
		interviewed[chosen] = true
	}
	return false, nil
}

func (g *game) interrogate(ctx context.Context, day int, suspect string) error {
	g.printf("\nInterrogating %s. Type 'exit' to stop anytime.\n", util.Capitalize(suspect))
	for i := range questionsPerVisit {
		question := g.prompt(fmt.Sprintf("❓ Q%d: ", i+1))
		if strings.ToLower(question) == "exit" {
			return nil
		}

		answer, err := g.service.Ask(ctx, suspect, question)
		if err != nil {
			if errors.Is(err, interrogation.ErrMissingInput) {
				g.printf("Please ask a question.\n")
				continue
			}
			// Upstream trouble shouldn't lose game progress; surface it and move on.
			g.printf("💬 Error generating response: %v\n", err)
			continue
		}
		g.printf("💬 %s\n", answer)

		if err = g.gameState.LogInterrogation(ctx, g.playerID, day, suspect, question, answer); err != nil {
			return errors.Wrap(err, "log interrogation")
		}
	}
	return nil
}

func (g *game) unlockDailyClues(ctx context.Context, day int) error {
	g.printf("\nAt the end of Day %d\n", day)
	answer := g.prompt(fmt.Sprintf("Enter your top %d suspects (comma-separated): ", topSuspectsPerDay))

	g.printf("\n📦 New Clues Unlocked:\n")
	for _, raw := range strings.SplitN(answer, ",", topSuspectsPerDay) {
		suspect := strings.ToLower(strings.TrimSpace(raw))
		if suspect == "" {
			continue
		}
		clue, err := g.service.Clue(day, suspect)
		if err != nil {
			return errors.Wrap(err, "load clue", slog.String("suspect", suspect))
		}
		g.printf("%s\n", clue)

		if !strings.HasPrefix(clue, "No new clues") {
			if err = g.gameState.UnlockClue(ctx, g.playerID, day, suspect, clue); err != nil {
				return errors.Wrap(err, "record clue unlock")
			}
		}
	}
	return nil
}

func (g *game) prompt(label string) string {
	g.printf("%s", label)
	if !g.in.Scan() {
		return "exit"
	}
	return strings.TrimSpace(g.in.Text())
}

func (g *game) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(g.out, format, args...)
}
