package models

// SuspectProfile is the static character sheet for one suspect. It biases the
// generated interrogation dialogue. A missing or malformed sheet yields the
// zero value, which substitutes as empty strings in the prompt.
type SuspectProfile struct {
	Backstory            string   `json:"backstory"`
	Timeline             Timeline `json:"timeline"`
	RelationshipToVictim string   `json:"relationship_to_victim"`
	Tone                 string   `json:"tone"`
}

// Timeline describes where the suspect was during the murder. ClaimedLocation
// is the suspect's own account and takes precedence over Location when both
// are set.
type Timeline struct {
	TimeRange       string `json:"time_range"`
	Location        string `json:"location"`
	ClaimedLocation string `json:"claimed_location"`
}

// PreferredLocation returns the location to present during interrogation, preferring
// the suspect's claimed location over the recorded one.
func (t Timeline) PreferredLocation() string {
	if t.ClaimedLocation != "" {
		return t.ClaimedLocation
	}
	return t.Location
}
