package flow

import (
	"fmt"

	"github.com/example/verbbot/pkg/models"
)

// Stage is a step of a user's day
type Stage int

const (
	// StageNotStarted means no verb was chosen today
	StageNotStarted Stage = iota
	// StageVerbChosen means the verb is set and no tense went out yet.
	// Quizzes are not persisted, so this also covers pending quizzes.
	StageVerbChosen
	// StageTenseSlot means some tenses went out and NextTense is due
	StageTenseSlot
	// StageDone means every tense was delivered
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageNotStarted:
		return "not_started"
	case StageVerbChosen:
		return "verb_chosen"
	case StageTenseSlot:
		return "tense_slot"
	case StageDone:
		return "done"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// State is the derived position of a user within the day
type State struct {
	Stage     Stage
	Verb      string
	Slot      int    // index of NextTense in the tense order
	NextTense string // empty unless a tense is due
}

func (s State) String() string {
	if s.Stage == StageTenseSlot {
		return fmt.Sprintf("tense_slot(%d)", s.Slot)
	}
	return s.Stage.String()
}

// DeriveState computes the user's state from the stored progress. Progress
// from another day counts as not started; sent tenses unknown to the tense
// order are ignored.
func DeriveState(progress *models.DailyProgress, day string, tenses []string) State {
	if progress == nil || progress.DayKey != day || progress.VerbOfDay == "" {
		return State{Stage: StageNotStarted}
	}

	delivered := 0
	next := -1
	for i, tense := range tenses {
		if progress.HasSent(tense) {
			delivered++
			continue
		}
		if next < 0 {
			next = i
		}
	}

	switch {
	case next < 0:
		return State{Stage: StageDone, Verb: progress.VerbOfDay, Slot: len(tenses)}
	case delivered == 0:
		return State{Stage: StageVerbChosen, Verb: progress.VerbOfDay, Slot: next, NextTense: tenses[next]}
	default:
		return State{Stage: StageTenseSlot, Verb: progress.VerbOfDay, Slot: next, NextTense: tenses[next]}
	}
}
