// Package prompt turns the interrogation template into a fully-resolved
// instruction for the generation client.
package prompt

import (
	"strings"

	"github.com/mkarvo/yachtmurder/internal/models"
	"github.com/mkarvo/yachtmurder/internal/util"
)

// Compile substitutes the suspect's attributes and the player's question into
// the template. Substitution is literal and total: every known placeholder is
// replaced, and a placeholder without a value becomes an empty string. The
// {location} slot prefers the suspect's claimed location over the recorded one.
func Compile(template, suspectName, question string, profile models.SuspectProfile) string {
	replacer := strings.NewReplacer(
		"{name}", util.Capitalize(suspectName),
		"{question}", question,
		"{tone}", profile.Tone,
		"{backstory}", profile.Backstory,
		"{time_range}", profile.Timeline.TimeRange,
		"{location}", profile.Timeline.PreferredLocation(),
		"{relationship_to_victim}", profile.RelationshipToVictim,
	)
	return replacer.Replace(template)
}
