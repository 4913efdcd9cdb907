package registration

import "github.com/looplab/fsm"

// Step is a position in the registration dialogue.
type Step string

const (
	StepStart         Step = "start"
	StepFullName      Step = "fullName"
	StepEmail         Step = "email"
	StepSection       Step = "section"
	StepPaymentMethod Step = "paymentMethod"
	StepPayment       Step = "payment"
	StepScreenshot    Step = "screenshot"
	// StepDone is entered once the records are written; the session is discarded right after.
	StepDone Step = "done"
)

const (
	eventNext     = "next"
	eventComplete = "complete"
)

// Steps lists the dialogue in order, excluding the terminal StepDone.
var Steps = []Step{
	StepStart,
	StepFullName,
	StepEmail,
	StepSection,
	StepPaymentMethod,
	StepPayment,
	StepScreenshot,
}

// transitions is the only place where the step order is declared.
func transitions() fsm.Events {
	events := make(fsm.Events, 0, len(Steps))
	for i := 0; i < len(Steps)-1; i++ {
		events = append(events, fsm.EventDesc{
			Name: eventNext,
			Src:  []string{string(Steps[i])},
			Dst:  string(Steps[i+1]),
		})
	}
	events = append(events, fsm.EventDesc{
		Name: eventComplete,
		Src:  []string{string(StepScreenshot)},
		Dst:  string(StepDone),
	})
	return events
}
