package tui

// refreshMsg asks the model to re-read the session after a renderer change.
type refreshMsg struct{}

// submitDoneMsg reports the end of a submission.
type submitDoneMsg struct {
	err error
}
