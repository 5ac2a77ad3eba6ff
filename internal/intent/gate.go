package intent

// =============================================================================
// CONFIDENCE GATE
// =============================================================================

// Gate thresholds. Confidence below the reject line is treated as noise,
// between the two lines the user is asked to confirm, at or above the
// confirm line the action executes directly.
const (
	RejectThreshold  = 0.3
	ExecuteThreshold = 0.5
)

// Decision is the gate's verdict on a recognized intent.
type Decision int

const (
	// Reject means the intent is too uncertain to act on at all.
	Reject Decision = iota
	// Confirm means the intent is plausible but needs user confirmation.
	Confirm
	// Execute means the intent is confident enough to act on directly.
	Execute
)

func (d Decision) String() string {
	switch d {
	case Reject:
		return "reject"
	case Confirm:
		return "confirm"
	case Execute:
		return "execute"
	}
	return "invalid"
}

// Gate classifies an intent's confidence into a decision. UNKNOWN
// intents are always rejected regardless of score.
func Gate(in Intent) Decision {
	if in.Type == ActionUnknown {
		return Reject
	}
	switch {
	case in.Confidence < RejectThreshold:
		return Reject
	case in.Confidence < ExecuteThreshold:
		return Confirm
	}
	return Execute
}
