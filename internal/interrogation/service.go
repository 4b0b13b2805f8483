// Package interrogation orchestrates a single question/answer exchange with a
// suspect: data lookup, prompt compilation, and the generation call. Every
// operation is a stateless request/response transaction.
package interrogation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mkarvo/yachtmurder/internal/errors"
	"github.com/mkarvo/yachtmurder/internal/gamedata"
	"github.com/mkarvo/yachtmurder/internal/prompt"
	"github.com/sashabaranov/go-openai"
)

// ErrMissingInput is the input-validation failure for empty suspect, question,
// or day parameters. It never triggers an upstream call.
var ErrMissingInput = errors.NewSentinel("missing suspect, question, or day")

const systemInstruction = "You are a detective AI assistant. " +
	"Your task is to help generate responses for a character in a murder mystery interrogation."

// askTemperature keeps in-character replies varied without losing the plot.
const askTemperature = 0.7

// Completer is the slice of the generation client the service depends on.
type Completer interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32) (string, error)
}

type Service struct {
	loader *gamedata.Loader
	ai     Completer
	logger *slog.Logger
}

func NewService(loader *gamedata.Loader, completer Completer, logger *slog.Logger) *Service {
	return &Service{
		loader: loader,
		ai:     completer,
		logger: logger.With("source", "interrogation.Service"),
	}
}

// Ask generates the suspect's in-character reply to the question. A missing
// prompt template is a deployment fault and propagates; a missing suspect
// sheet is not, the reply is generated with a neutral profile.
func (s *Service) Ask(ctx context.Context, suspect, question string) (string, error) {
	suspect = strings.TrimSpace(suspect)
	question = strings.TrimSpace(question)
	if suspect == "" || question == "" {
		return "", errors.Wrap(ErrMissingInput, "ask requires a suspect and a question")
	}

	template, err := s.loader.LoadTemplate()
	if err != nil {
		return "", errors.Wrap(err, "load prompt template")
	}
	profile := s.loader.LoadSuspect(suspect)
	compiled := prompt.Compile(template, suspect, question, profile)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
		{Role: openai.ChatMessageRoleUser, Content: compiled},
	}
	answer, err := s.ai.Complete(ctx, messages, askTemperature)
	if err != nil {
		return "", errors.Wrap(err, "generate interrogation reply", slog.String("suspect", suspect))
	}

	s.logger.Info("generated interrogation reply", slog.String("suspect", suspect))
	return answer, nil
}

// Clue returns the clue text for the day/suspect pair. The "no new clues"
// sentinel string is a success, not an error.
func (s *Service) Clue(day int, suspect string) (string, error) {
	suspect = strings.TrimSpace(suspect)
	if day < 1 || suspect == "" {
		return "", errors.Wrap(ErrMissingInput, "clue requires a positive day and a suspect")
	}
	return s.loader.LoadClue(day, suspect), nil
}
