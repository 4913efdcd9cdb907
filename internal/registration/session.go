package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/looplab/fsm"

	"github.com/m3rciful/placementbot/internal/store"
)

// ErrCompleted is returned when input reaches a session that already finished.
var ErrCompleted = errors.New("registration: session already completed")

// Input is one inbound event as seen by the dialogue.
type Input struct {
	Text        string
	PhotoFileID string
}

// Reply is an outbound plain-text message. Choices, when set, are offered as
// keyboard buttons; HideChoices removes a previously shown keyboard.
type Reply struct {
	Text        string
	Choices     []string
	HideChoices bool
}

// Draft is the record under construction. Fields stay empty until their step is answered.
type Draft struct {
	StudentID     string
	FullName      string
	Email         string
	Section       string
	PaymentMethod store.PaymentMethod
	FTNumber      string
}

// Result describes the effect of one Advance call.
type Result struct {
	Replies          []Reply
	Completed        bool
	Draft            Draft
	ScreenshotFileID string
}

// Session is one user's registration dialogue.
type Session struct {
	machine *fsm.FSM
	texts   Texts
	Draft   Draft
}

// NewSession returns a session positioned at StepStart.
func NewSession(texts Texts) *Session {
	return &Session{
		machine: fsm.NewFSM(string(StepStart), transitions(), nil),
		texts:   texts.withDefaults(),
	}
}

// Step reports the current step.
func (s *Session) Step() Step {
	return Step(s.machine.Current())
}

// Advance applies in to the current step. Completion is reported on the
// screenshot step but the session stays there until Finish is called, so a
// failed write can be retried by sending the photo again.
func (s *Session) Advance(ctx context.Context, in Input) (Result, error) {
	text := strings.TrimSpace(in.Text)

	switch step := s.Step(); step {
	case StepStart:
		if text == "" {
			return reply(askStudentID), nil
		}
		s.Draft.StudentID = text
		return s.next(ctx, Reply{Text: askFullName})

	case StepFullName:
		if text == "" {
			return reply(askFullName), nil
		}
		s.Draft.FullName = text
		return s.next(ctx, Reply{Text: askEmail})

	case StepEmail:
		if text == "" {
			return reply(askEmail), nil
		}
		s.Draft.Email = text
		return s.next(ctx, Reply{Text: askSection})

	case StepSection:
		if text == "" {
			return reply(askSection), nil
		}
		s.Draft.Section = text
		return s.next(ctx, Reply{Text: paymentMethodText, Choices: paymentMethodChoices})

	case StepPaymentMethod:
		var method store.PaymentMethod
		switch text {
		case "1":
			method = store.MethodCBE
		case "2":
			method = store.MethodTeleBirr
		default:
			return Result{Replies: []Reply{{Text: methodGuidance, Choices: paymentMethodChoices}}}, nil
		}
		s.Draft.PaymentMethod = method
		return s.next(ctx, Reply{Text: s.texts.paymentInstructions(method), HideChoices: true})

	case StepPayment:
		if text == "" {
			return Result{}, nil
		}
		s.Draft.FTNumber = text
		return s.next(ctx, Reply{Text: askScreenshot})

	case StepScreenshot:
		if in.PhotoFileID == "" {
			return reply(screenshotGuidance), nil
		}
		return Result{Completed: true, Draft: s.Draft, ScreenshotFileID: in.PhotoFileID}, nil

	case StepDone:
		return Result{}, ErrCompleted

	default:
		return Result{}, fmt.Errorf("registration: unknown step %q", step)
	}
}

// Finish moves a completed session to StepDone.
func (s *Session) Finish(ctx context.Context) error {
	if err := s.machine.Event(ctx, eventComplete); err != nil {
		return fmt.Errorf("registration: finish from %s: %w", s.Step(), err)
	}
	return nil
}

func (s *Session) next(ctx context.Context, r Reply) (Result, error) {
	if err := s.machine.Event(ctx, eventNext); err != nil {
		return Result{}, fmt.Errorf("registration: advance from %s: %w", s.Step(), err)
	}
	return Result{Replies: []Reply{r}, Draft: s.Draft}, nil
}

func reply(text string) Result {
	return Result{Replies: []Reply{{Text: text}}}
}
