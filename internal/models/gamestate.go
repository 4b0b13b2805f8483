package models

// Interrogation is one logged question and answer from a player's session
// with a suspect.
type Interrogation struct {
	ID       int64  `db:"id" json:"id"`
	Day      int    `db:"day" json:"day"`
	Suspect  string `db:"suspect" json:"suspect"`
	Question string `db:"question" json:"question"`
	Answer   string `db:"answer" json:"answer"`
}

// ClueUnlock records that a player has seen the clue for a day/suspect pair.
type ClueUnlock struct {
	Day     int    `db:"day" json:"day"`
	Suspect string `db:"suspect" json:"suspect"`
	Clue    string `db:"clue" json:"clue"`
}

// GameState is a player's progress through the investigation.
type GameState struct {
	Day            int             `json:"day"`
	Interrogations []Interrogation `json:"interrogations"`
	UnlockedClues  []ClueUnlock    `json:"unlocked_clues"`
}
