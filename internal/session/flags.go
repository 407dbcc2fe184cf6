package session

import (
	"fmt"

	"TimeTracker/internal/domain"
)

// Transition applies one button press to the row flags.
//
//	Start  always allowed; active, clears the rest.
//	Pause  needs active; sets paused.
//	Resume needs paused; clears paused and stopped, sets resumed.
//	Stop   needs active; clears everything but stopped.
func Transition(f domain.RowFlags, action domain.Action) (domain.RowFlags, error) {
	switch action {
	case domain.ActionStart:
		return domain.RowFlags{Active: true}, nil
	case domain.ActionPause:
		if !f.Active {
			return f, fmt.Errorf("%w: pause requires an active timer", domain.ErrTransition)
		}
		f.Paused = true
		return f, nil
	case domain.ActionResume:
		if !f.Paused {
			return f, fmt.Errorf("%w: resume requires a paused timer", domain.ErrTransition)
		}
		f.Paused = false
		f.Resumed = true
		f.Stopped = false
		return f, nil
	case domain.ActionStop:
		if !f.Active {
			return f, fmt.Errorf("%w: stop requires an active timer", domain.ErrTransition)
		}
		return domain.RowFlags{Stopped: true}, nil
	default:
		return f, fmt.Errorf("%w: unknown action %q", domain.ErrTransition, action)
	}
}

// FlagsAfter returns the flags a row shows when action was its last logged event.
func FlagsAfter(action domain.Action) domain.RowFlags {
	switch action {
	case domain.ActionStart:
		return domain.RowFlags{Active: true}
	case domain.ActionPause:
		return domain.RowFlags{Active: true, Paused: true}
	case domain.ActionResume:
		return domain.RowFlags{Active: true, Resumed: true}
	case domain.ActionStop:
		return domain.RowFlags{Stopped: true}
	default:
		return domain.RowFlags{}
	}
}
