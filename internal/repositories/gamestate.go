// Package repositories persists player progress: the day counter, the
// interrogation log, and unlocked clues.
package repositories

import (
	"context"
	"log/slog"

	"github.com/mkarvo/yachtmurder/internal/errors"
	"github.com/mkarvo/yachtmurder/internal/models"
	"github.com/mkarvo/yachtmurder/internal/sqlite"
)

type GameStateRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewGameStateRepository(dbs *sqlite.Database, logger *slog.Logger) *GameStateRepository {
	return &GameStateRepository{
		dbs:    dbs,
		logger: logger.With("source", "GameStateRepository"),
	}
}

// ensurePlayer creates the player row on first contact. Day starts at 1.
func (r *GameStateRepository) ensurePlayer(ctx context.Context, playerID string) error {
	stmt := `INSERT INTO players (id) VALUES (?) ON CONFLICT (id) DO NOTHING`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, playerID); err != nil {
		return errors.Wrap(err, "insert player", slog.String("playerID", playerID))
	}
	return nil
}

// CurrentDay returns the player's day counter, creating the player at day 1
// on first contact.
func (r *GameStateRepository) CurrentDay(ctx context.Context, playerID string) (int, error) {
	if err := r.ensurePlayer(ctx, playerID); err != nil {
		return 0, err
	}
	var day int
	stmt := `SELECT day FROM players WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &day, stmt, playerID); err != nil {
		return 0, errors.Wrap(err, "read current day", slog.String("playerID", playerID))
	}
	return day, nil
}

// AdvanceDay increments the player's day counter and returns the new day.
func (r *GameStateRepository) AdvanceDay(ctx context.Context, playerID string) (int, error) {
	if err := r.ensurePlayer(ctx, playerID); err != nil {
		return 0, err
	}
	var day int
	stmt := `UPDATE players SET day = day + 1 WHERE id = ? RETURNING day`
	if err := r.dbs.ReadWrite.GetContext(ctx, &day, stmt, playerID); err != nil {
		return 0, errors.Wrap(err, "advance day", slog.String("playerID", playerID))
	}
	return day, nil
}

// LogInterrogation appends a question/answer pair to the player's log.
func (r *GameStateRepository) LogInterrogation(
	ctx context.Context,
	playerID string,
	day int,
	suspect string,
	question string,
	answer string,
) error {
	if err := r.ensurePlayer(ctx, playerID); err != nil {
		return err
	}
	stmt := `INSERT INTO interrogations (player_id, day, suspect, question, answer) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, playerID, day, suspect, question, answer); err != nil {
		return errors.Wrap(err, "insert interrogation",
			slog.String("playerID", playerID), slog.String("suspect", suspect))
	}
	return nil
}

// UnlockClue records that the player has seen the clue for a day/suspect
// pair. Repeated unlocks are idempotent.
func (r *GameStateRepository) UnlockClue(ctx context.Context, playerID string, day int, suspect, clue string) error {
	if err := r.ensurePlayer(ctx, playerID); err != nil {
		return err
	}
	stmt := `INSERT INTO clue_unlocks (player_id, day, suspect, clue)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (player_id, day, suspect) DO NOTHING`
	if _, err := r.dbs.ReadWrite.ExecContext(ctx, stmt, playerID, day, suspect, clue); err != nil {
		return errors.Wrap(err, "insert clue unlock",
			slog.String("playerID", playerID), slog.String("suspect", suspect))
	}
	return nil
}

// State assembles the player's full progress.
func (r *GameStateRepository) State(ctx context.Context, playerID string) (*models.GameState, error) {
	day, err := r.CurrentDay(ctx, playerID)
	if err != nil {
		return nil, err
	}

	var interrogations []models.Interrogation
	stmt := `SELECT id, day, suspect, question, answer
	FROM interrogations
	WHERE player_id = ?
	ORDER BY id`
	if err = r.dbs.ReadOnly.SelectContext(ctx, &interrogations, stmt, playerID); err != nil {
		return nil, errors.Wrap(err, "query interrogations", slog.String("playerID", playerID))
	}

	var unlocks []models.ClueUnlock
	stmt = `SELECT day, suspect, clue
	FROM clue_unlocks
	WHERE player_id = ?
	ORDER BY day, suspect`
	if err = r.dbs.ReadOnly.SelectContext(ctx, &unlocks, stmt, playerID); err != nil {
		return nil, errors.Wrap(err, "query clue unlocks", slog.String("playerID", playerID))
	}

	return &models.GameState{
		Day:            day,
		Interrogations: interrogations,
		UnlockedClues:  unlocks,
	}, nil
}
