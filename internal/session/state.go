package session

// Phase is where the current round-trip stands.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// RequestState is overwritten on every transition; it keeps no history.
type RequestState struct {
	Phase        Phase  `json:"phase"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// terminal reports whether s is a one-shot outcome that reverts to idle once
// observed.
func (s RequestState) terminal() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed
}
