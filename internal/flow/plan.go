package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/example/verbbot/pkg/models"
	"github.com/google/uuid"
)

// Scheduled actions
const (
	ActionVerbOfDay = "verb_of_day"
	ActionQuiz1     = "quiz1"
	ActionQuiz2     = "quiz2"
	ActionTense     = "tense"
)

// Slot ids of the daily schedule
func verbSlot(userID int64) string  { return fmt.Sprintf("verb_of_day_%d", userID) }
func quiz1Slot(userID int64) string { return fmt.Sprintf("quiz1_%d", userID) }
func quiz2Slot(userID int64) string { return fmt.Sprintf("quiz2_%d", userID) }
func tenseSlot(userID int64, hour int) string {
	return fmt.Sprintf("tense_%d_%d", userID, hour)
}

// Slot ids of the accelerated test flow
func testSlot(action string, userID int64) string { return fmt.Sprintf("test_%s_%d", action, userID) }
func testTenseSlot(userID int64, n int) string {
	return fmt.Sprintf("test_tense_%d_%d", userID, n)
}

// ScheduleUser installs the daily schedule of a user
func (c *Controller) ScheduleUser(userID int64) error {
	if err := c.sched.Daily(verbSlot(userID), c.schedule.VerbAt, c.trigger(userID, ActionVerbOfDay, c.DeliverVerbOfDay)); err != nil {
		return err
	}
	if err := c.sched.Daily(quiz1Slot(userID), c.schedule.Quiz1At, c.trigger(userID, ActionQuiz1, c.DeliverQuiz1)); err != nil {
		return err
	}
	if err := c.sched.Daily(quiz2Slot(userID), c.schedule.Quiz2At, c.trigger(userID, ActionQuiz2, c.DeliverQuiz2)); err != nil {
		return err
	}
	for _, hour := range c.schedule.TenseHours() {
		at := fmt.Sprintf("%02d:00", hour)
		if err := c.sched.Daily(tenseSlot(userID, hour), at, c.trigger(userID, ActionTense, c.deliverNextTense)); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleAll installs the daily schedule of every known user
func (c *Controller) ScheduleAll(ctx context.Context) (int, error) {
	ids, err := c.store.AllUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := c.ScheduleUser(id); err != nil {
			return 0, fmt.Errorf("schedule user %d: %w", id, err)
		}
	}
	return len(ids), nil
}

// StartTestFlow resets the user's day and replays it with short delays.
// Starting it again replaces the triggers still pending.
func (c *Controller) StartTestFlow(ctx context.Context, userID int64) (time.Duration, error) {
	if err := c.store.ResetDailyProgress(ctx, userID); err != nil {
		return 0, err
	}

	step := c.schedule.TestStep
	start := c.now()
	at := func(n int) time.Time { return start.Add(time.Duration(n) * step) }

	if err := c.sched.Once(testSlot(ActionVerbOfDay, userID), at(1), c.trigger(userID, ActionVerbOfDay, c.DeliverVerbOfDay)); err != nil {
		return 0, err
	}
	if err := c.sched.Once(testSlot(ActionQuiz1, userID), at(2), c.trigger(userID, ActionQuiz1, c.DeliverQuiz1)); err != nil {
		return 0, err
	}
	if err := c.sched.Once(testSlot(ActionQuiz2, userID), at(3), c.trigger(userID, ActionQuiz2, c.DeliverQuiz2)); err != nil {
		return 0, err
	}

	tenses := len(c.catalog.TenseNames())
	for i := 0; i < tenses; i++ {
		if err := c.sched.Once(testTenseSlot(userID, i), at(4+i), c.trigger(userID, ActionTense, c.deliverNextTense)); err != nil {
			return 0, err
		}
	}

	c.log.Info("Test flow scheduled", "user_id", userID, "step", step.String(), "tenses", tenses)
	return time.Duration(3+tenses) * step, nil
}

// Register creates the user on first contact and installs the daily schedule.
// It reports whether the user is new.
func (c *Controller) Register(ctx context.Context, userID int64) (bool, error) {
	created, err := c.store.CreateUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if err := c.ScheduleUser(userID); err != nil {
		return created, err
	}
	if created {
		c.log.Info("New user registered", "user_id", userID)
	}
	return created, nil
}

// Status describes a user's day
type Status struct {
	Registered bool
	Verb       *models.Verb
	State      State
}

// Status reports the verb of the day and the derived state of the user
func (c *Controller) Status(ctx context.Context, userID int64) (Status, error) {
	exists, err := c.store.UserExists(ctx, userID)
	if err != nil || !exists {
		return Status{}, err
	}

	day := c.Today()
	progress, err := c.store.Progress(ctx, userID, day)
	if err != nil {
		return Status{}, err
	}

	st := Status{Registered: true, State: DeriveState(progress, day, c.catalog.TenseNames())}
	if st.State.Stage != StageNotStarted {
		verb, ok := c.catalog.ByInfinitive(st.State.Verb)
		if !ok {
			verb = models.Verb{Infinitive: st.State.Verb}
		}
		st.Verb = &verb
	}
	return st, nil
}

// ResetProgress clears the user's verb of the day and sent tenses
func (c *Controller) ResetProgress(ctx context.Context, userID int64) error {
	if err := c.store.ResetDailyProgress(ctx, userID); err != nil {
		return err
	}
	c.log.Info("Daily progress reset", "user_id", userID)
	return nil
}

func (c *Controller) deliverNextTense(ctx context.Context, userID int64) error {
	_, err := c.DeliverNextTense(ctx, userID)
	return err
}

// trigger wraps an action into a scheduler task. Each firing is independent:
// failures and panics are logged and the action waits for its next firing.
func (c *Controller) trigger(userID int64, action string, fn func(context.Context, int64) error) func() {
	return func() {
		c.Fire(userID, action, fn)
	}
}

// Fire runs a single firing of action for the user
func (c *Controller) Fire(userID int64, action string, fn func(context.Context, int64) error) {
	log := c.log.With("user_id", userID, "action", action, "run_id", uuid.NewString())

	defer func() {
		if r := recover(); r != nil {
			log.Error("Scheduled action panicked", "panic", fmt.Sprint(r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.triggerTimeout)
	defer cancel()

	if err := fn(ctx, userID); err != nil {
		log.Error("Scheduled action failed", "error", err)
	}
}
