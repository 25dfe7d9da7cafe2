// Package take is the interactive screen that administers one adaptive
// assessment, item by item.
package take

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cogcat/internal/apperr"
	"github.com/abhisek/cogcat/internal/assessment"
	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/router"
	"github.com/abhisek/cogcat/internal/screen"
	"github.com/abhisek/cogcat/internal/screens/result"
	"github.com/abhisek/cogcat/internal/ui/components"
	"github.com/abhisek/cogcat/internal/ui/layout"
)

// Engine is the part of the assessment engine the screen drives.
type Engine interface {
	Start(ctx context.Context, childID string, domain itembank.Domain) (*assessment.StartResult, error)
	Respond(ctx context.Context, assessmentID, itemID string, response itembank.Answer, reactionTimeMs int) (*assessment.RespondResult, error)
}

// inputMode is how the current item collects its answer.
type inputMode int

const (
	modeChoice inputMode = iota
	modeCount
	modeList
	modeText
)

// TakeScreen implements screen.Screen for a running assessment.
type TakeScreen struct {
	engine   Engine
	profiles result.ProfileSource
	childID  string
	child    string
	domain   itembank.Domain
	maxItems int
	now      func() time.Time

	session  *assessment.Session
	item     *itembank.TestItem
	shownAt  time.Time
	answered int
	theta    float64
	se       float64

	mode  inputMode
	mc    components.MultiChoice
	input components.TextInput

	busy        bool
	feedback    *assessment.RespondResult
	confirmQuit bool
	notice      string
	errMsg      string
}

var _ screen.Screen = (*TakeScreen)(nil)
var _ screen.KeyHintProvider = (*TakeScreen)(nil)
var _ screen.EscHandler = (*TakeScreen)(nil)

// New creates a screen that starts an assessment of childID in domain when
// it is initialized. maxItems only drives the progress display.
func New(engine Engine, profiles result.ProfileSource, childID, childName string, domain itembank.Domain, maxItems int) *TakeScreen {
	return &TakeScreen{
		engine:   engine,
		profiles: profiles,
		childID:  childID,
		child:    childName,
		domain:   domain,
		maxItems: maxItems,
		now:      time.Now,
		se:       1,
	}
}

func (s *TakeScreen) Init() tea.Cmd {
	engine, childID, domain := s.engine, s.childID, s.domain
	return func() tea.Msg {
		res, err := engine.Start(context.Background(), childID, domain)
		return startedMsg{Result: res, Err: err}
	}
}

func (s *TakeScreen) Title() string {
	return s.domain.DisplayName() + " Test"
}

// HandlesEsc keeps Esc on this screen while an item is being answered.
func (s *TakeScreen) HandlesEsc() bool {
	return s.errMsg == "" && s.session != nil
}

func (s *TakeScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "Stop for now"},
			{Key: "N", Description: "Keep going"},
		}
	case s.feedback != nil:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case s.mode == modeChoice:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "1-9", Description: "Pick"},
			{Key: "Enter", Description: "Answer"},
			{Key: "Esc", Description: "Stop"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Answer"},
		{Key: "Esc", Description: "Stop"},
	}
}

func (s *TakeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		return s.handleStarted(msg)
	case respondedMsg:
		return s.handleResponded(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.item != nil && s.feedback == nil && s.mode != modeChoice {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *TakeScreen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = describe(msg.Err)
		return s, nil
	}
	s.session = msg.Result.Session
	s.theta = s.session.Theta
	s.se = s.session.SE
	return s, s.present(msg.Result.FirstItem)
}

func (s *TakeScreen) handleResponded(msg respondedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		// A rejected duplicate leaves the item on screen.
		if errors.Is(msg.Err, apperr.ErrValidation) {
			s.notice = describe(msg.Err)
			s.mc.Submitted = false
			return s, nil
		}
		s.errMsg = describe(msg.Err)
		return s, nil
	}
	s.notice = ""
	s.answered++
	s.theta = msg.Result.NewTheta
	s.se = msg.Result.NewSE
	s.feedback = msg.Result
	if msg.Result.Session != nil {
		s.session = msg.Result.Session
	}
	return s, nil
}

func (s *TakeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.session == nil || s.busy {
		return s, nil
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if fb := s.feedback; fb != nil {
		s.feedback = nil
		if fb.IsComplete {
			done := result.New(s.profiles, s.child, s.session)
			return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: done} }
		}
		return s, s.present(fb.NextItem)
	}

	if key == "esc" {
		s.confirmQuit = true
		return s, nil
	}

	if s.mode == modeChoice {
		s.mc = s.mc.Update(msg)
		if s.mc.Submitted {
			return s.submit(itembank.ScalarAnswer(s.mc.Chosen()))
		}
		return s, nil
	}

	if key == "enter" {
		return s.submit(s.textAnswer())
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// present shows item and resets the answer widgets for its content type.
func (s *TakeScreen) present(item *itembank.TestItem) tea.Cmd {
	s.item = item
	s.shownAt = s.now()
	if item == nil {
		return nil
	}

	s.mode = modeFor(item.Content)
	switch s.mode {
	case modeChoice:
		s.mc = components.NewMultiChoice(item.Content.Options)
		return nil
	case modeCount:
		s.input = components.NewTextInput("How many?", true, 4)
	case modeList:
		s.input = components.NewTextInput("a, b, c", false, 80)
	default:
		s.input = components.NewTextInput("Type your answer...", false, 40)
	}
	return s.input.Init()
}

func modeFor(c itembank.Content) inputMode {
	switch c.Type {
	case "multiple_choice":
		if len(c.Options) > 0 {
			return modeChoice
		}
	case "touch_count":
		return modeCount
	case "sequence", "matching", "drag_drop":
		return modeList
	}
	return modeText
}

func (s *TakeScreen) textAnswer() itembank.Answer {
	if s.mode == modeList {
		return itembank.ListAnswer(s.input.ListValue()...)
	}
	return itembank.ScalarAnswer(s.input.Value())
}

// submit scores answer asynchronously. Empty answers are ignored.
func (s *TakeScreen) submit(answer itembank.Answer) (screen.Screen, tea.Cmd) {
	if s.item == nil || answer.Empty() {
		if s.mode == modeChoice {
			s.mc.Submitted = false
		}
		return s, nil
	}

	s.busy = true
	rt := int(s.now().Sub(s.shownAt).Milliseconds())
	engine, sessionID, itemID := s.engine, s.session.ID, s.item.ID
	return s, func() tea.Msg {
		res, err := engine.Respond(context.Background(), sessionID, itemID, answer, max(rt, 0))
		return respondedMsg{Result: res, Err: err}
	}
}

// describe turns an engine error into a message for the screen.
func describe(err error) string {
	switch {
	case errors.Is(err, assessment.ErrNoEligibleItems):
		return "There are no questions for this age and domain yet."
	case errors.Is(err, apperr.ErrValidation):
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae.Msg
		}
	case errors.Is(err, apperr.ErrInvalidState):
		return "This test has already finished."
	case errors.Is(err, apperr.ErrTransientStorage):
		return "Saving took too long. Please try again."
	}
	return err.Error()
}
