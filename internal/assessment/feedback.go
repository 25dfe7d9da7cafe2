package assessment

// Feedback is the child-facing message shown after a response.
type Feedback struct {
	Headline      string `json:"correct"`
	Encouragement string `json:"encouragement"`
}

var (
	correctMessages = []string{
		"You're doing great!",
		"Awesome work!",
		"Keep it up!",
		"You're a star!",
		"Fantastic!",
	}
	incorrectMessages = []string{
		"Nice try! Let's keep going!",
		"That was tricky! You're doing well!",
		"Good effort! Try the next one!",
		"Keep going, you've got this!",
	}
)

// FeedbackFor returns the message for the response at itemSequence.
func FeedbackFor(correct bool, itemSequence int) Feedback {
	if correct {
		return Feedback{Headline: "Great job!", Encouragement: pick(correctMessages, itemSequence)}
	}
	return Feedback{Headline: "Good try!", Encouragement: pick(incorrectMessages, itemSequence)}
}

func pick(msgs []string, n int) string {
	i := n % len(msgs)
	if i < 0 {
		i += len(msgs)
	}
	return msgs[i]
}
