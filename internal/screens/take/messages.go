package take

import "github.com/abhisek/cogcat/internal/assessment"

// startedMsg is sent when the session has been opened.
type startedMsg struct {
	Result *assessment.StartResult
	Err    error
}

// respondedMsg is sent when a response has been scored.
type respondedMsg struct {
	Result *assessment.RespondResult
	Err    error
}
