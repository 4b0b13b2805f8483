// Package gamedata reads the static game content: the interrogation prompt
// template, per-suspect character sheets, and per-day clue files. All lookups
// are pure functions of the content store, so concurrent requests need no
// coordination.
package gamedata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkarvo/yachtmurder/internal/errors"
	"github.com/mkarvo/yachtmurder/internal/models"
	"github.com/mkarvo/yachtmurder/internal/util"
)

// ErrTemplateNotFound means the prompt template file is missing from the
// content store. This is a deployment problem and aborts startup. Callers
// must not swallow it.
var ErrTemplateNotFound = errors.NewSentinel("prompt template not found")

// clueFieldPreference is the ordered chain of JSON fields checked for clue
// text. The first present string field wins.
var clueFieldPreference = []string{"clue", "text", "content"}

const missingClueFieldText = "No clue text found in JSON"

type Loader struct {
	root   string
	logger *slog.Logger
}

// NewLoader binds a loader to the content root directory containing the
// prompts/, suspects/, and clues/ namespaces.
func NewLoader(root string, logger *slog.Logger) *Loader {
	return &Loader{
		root:   root,
		logger: logger.With("source", "gamedata.Loader"),
	}
}

// LoadTemplate reads the interrogation prompt template.
func (l *Loader) LoadTemplate() (string, error) {
	path := filepath.Join(l.root, "prompts", "interrogation_prompt.txt")
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(ErrTemplateNotFound, "read prompt template", slog.String("path", path))
	}
	return string(raw), nil
}

// LoadSuspect reads the character sheet for the named suspect. A missing or
// malformed sheet is not an error: interrogation proceeds with a neutral
// zero-value profile.
func (l *Loader) LoadSuspect(name string) models.SuspectProfile {
	var profile models.SuspectProfile
	path := filepath.Join(l.root, "suspects", strings.ToLower(name)+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("suspect sheet not readable", slog.String("suspect", name), slog.String("path", path))
		return profile
	}
	if err = json.Unmarshal(raw, &profile); err != nil {
		l.logger.Warn("suspect sheet malformed",
			slog.String("suspect", name), errors.SlogError(errors.Wrap(err, "parse suspect sheet")))
		return models.SuspectProfile{}
	}
	return profile
}

// LoadClue returns the formatted clue for a day/suspect pair, or the
// "no new clues" sentinel when no clue file matches. It never fails:
// unreadable candidates are logged and the search continues.
func (l *Loader) LoadClue(day int, suspect string) string {
	want := strings.ToLower(suspect)
	for _, dayDir := range dayDirCandidates(day) {
		cluesDir := filepath.Join(l.root, "clues", dayDir)
		entries, err := os.ReadDir(cluesDir)
		if err != nil {
			if !os.IsNotExist(err) {
				l.logger.Warn("clue directory not readable", slog.String("dir", cluesDir),
					errors.SlogError(errors.Wrap(err, "read clue directory")))
			}
			continue
		}
		// os.ReadDir sorts entries by filename, so when several files share
		// the suspect prefix the first lexical match wins deterministically.
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := strings.ToLower(entry.Name())
			ext := filepath.Ext(name)
			if ext != ".json" && ext != ".txt" {
				continue
			}
			if !strings.HasPrefix(name, want) {
				continue
			}
			text, ok := l.readClueFile(filepath.Join(cluesDir, entry.Name()), ext)
			if !ok {
				continue
			}
			return fmt.Sprintf("🧩 Clue about %s: %s", util.Capitalize(suspect), text)
		}
	}
	return fmt.Sprintf("No new clues for %s today.", util.Capitalize(suspect))
}

// Suspects lists the suspect roster from the character sheets on disk.
func (l *Loader) Suspects() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.root, "suspects"))
	if err != nil {
		return nil, errors.Wrap(err, "read suspects directory")
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	return names, nil
}

// dayDirCandidates lists the tolerated day-directory naming conventions in
// preference order.
func dayDirCandidates(day int) []string {
	return []string{
		fmt.Sprintf("day%d", day),
		fmt.Sprintf("day %d", day),
	}
}

func (l *Loader) readClueFile(path, ext string) (string, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("clue file not readable", slog.String("path", path),
			errors.SlogError(errors.Wrap(err, "read clue file")))
		return "", false
	}
	if ext == ".txt" {
		return strings.TrimSpace(string(raw)), true
	}
	var record map[string]any
	if err = json.Unmarshal(raw, &record); err != nil {
		l.logger.Warn("clue file malformed", slog.String("path", path),
			errors.SlogError(errors.Wrap(err, "parse clue file")))
		return "", false
	}
	for _, field := range clueFieldPreference {
		if text, ok := record[field].(string); ok && text != "" {
			return text, true
		}
	}
	return missingClueFieldText, true
}
