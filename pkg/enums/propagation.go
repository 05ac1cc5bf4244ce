package enums

// PropagationOutcome classifies the result of pushing a single line item's
// stock decrement to the remote platform.
type PropagationOutcome string

const (
	PropagationSuccess PropagationOutcome = "success"
	PropagationSkipped PropagationOutcome = "skipped"
	PropagationError   PropagationOutcome = "error"
)
