package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/verbbot/internal/database"
	"github.com/example/verbbot/internal/quiz"
	"github.com/example/verbbot/pkg/models"
)

// DeliverVerbOfDay picks a verb for today and announces it. If today's verb
// already exists it is kept and announced again, so a retried trigger
// repeats the announcement of the stored verb rather than a fresh draw.
func (c *Controller) DeliverVerbOfDay(ctx context.Context, userID int64) error {
	day := c.Today()

	candidate, err := c.catalog.RandomVerb()
	if err != nil {
		return fmt.Errorf("choose verb: %w", err)
	}

	stored, assigned, err := c.store.SetVerbOfDay(ctx, userID, candidate.Infinitive, day)
	if err != nil {
		return err
	}

	verb, ok := c.catalog.ByInfinitive(stored)
	if !ok {
		c.log.Warn("Stored verb is missing from catalog", "user_id", userID, "verb", stored)
		verb = models.Verb{Infinitive: stored}
	}

	if _, err := c.gateway.SendMessage(ctx, userID, verbAnnouncement(verb), nil); err != nil {
		return fmt.Errorf("send verb of day: %w", err)
	}

	c.log.Info("Sent verb of the day", "user_id", userID, "verb", stored, "day", day, "assigned", assigned)
	return nil
}

// DeliverQuiz1 sends the infinitive to translation quiz
func (c *Controller) DeliverQuiz1(ctx context.Context, userID int64) error {
	return c.deliverQuiz(ctx, userID, quiz.Translation)
}

// DeliverQuiz2 sends the translation to infinitive quiz
func (c *Controller) DeliverQuiz2(ctx context.Context, userID int64) error {
	return c.deliverQuiz(ctx, userID, quiz.Infinitive)
}

func (c *Controller) deliverQuiz(ctx context.Context, userID int64, kind quiz.Kind) error {
	verb, ok, err := c.verbOfDay(ctx, userID)
	if err != nil || !ok {
		return err
	}

	q := quiz.New(kind, verb, userID, c.catalog, c.rnd)
	if err := q.Validate(); err != nil {
		c.log.Error("Quiz answer too long for Telegram buttons, not sent",
			"user_id", userID, "quiz", string(kind), "verb", verb.Infinitive, "error", err)
		return err
	}
	if _, err := c.gateway.SendMessage(ctx, userID, quizPrompt(q), quizButtons(q)); err != nil {
		return fmt.Errorf("send quiz %s: %w", kind, err)
	}

	c.log.Info("Sent quiz", "user_id", userID, "quiz", string(kind), "verb", verb.Infinitive)
	return nil
}

// DeliverNextTense sends the first tense of the catalog order not yet sent
// today and records it. It returns the delivered tense, or "" when there was
// nothing to do.
func (c *Controller) DeliverNextTense(ctx context.Context, userID int64) (string, error) {
	day := c.Today()

	progress, err := c.store.Progress(ctx, userID, day)
	if err != nil {
		return "", err
	}

	state := DeriveState(progress, day, c.catalog.TenseNames())
	switch state.Stage {
	case StageNotStarted:
		c.log.Debug("No verb of the day yet, skipping tense", "user_id", userID)
		return "", nil
	case StageDone:
		c.log.Debug("All tenses already sent today", "user_id", userID)
		return "", nil
	}

	verb, ok := c.catalog.ByInfinitive(state.Verb)
	if !ok {
		c.log.Warn("Stored verb is missing from catalog", "user_id", userID, "verb", state.Verb)
		return "", nil
	}

	forms := c.catalog.TenseForms(verb, state.NextTense)
	if _, err := c.gateway.SendMessage(ctx, userID, tenseBreakdown(state.NextTense, forms), nil); err != nil {
		return "", fmt.Errorf("send tense %q: %w", state.NextTense, err)
	}

	// Marked after the send: a crash in between re-sends this tense next time
	err = c.store.MarkTenseSent(ctx, userID, verb.Infinitive, state.NextTense, day)
	if errors.Is(err, database.ErrStaleProgress) {
		c.log.Warn("Progress replaced while sending tense, not recorded", "user_id", userID, "tense", state.NextTense, "verb", verb.Infinitive)
		return "", nil
	}
	if err != nil {
		return "", err
	}

	c.log.Info("Sent tense", "user_id", userID, "tense", state.NextTense, "slot", state.Slot, "verb", verb.Infinitive)
	return state.NextTense, nil
}

// verbOfDay returns today's verb if one was chosen and is still in the catalog
func (c *Controller) verbOfDay(ctx context.Context, userID int64) (models.Verb, bool, error) {
	progress, err := c.store.Progress(ctx, userID, c.Today())
	if err != nil {
		return models.Verb{}, false, err
	}
	if progress == nil {
		c.log.Debug("No verb of the day yet", "user_id", userID)
		return models.Verb{}, false, nil
	}

	verb, ok := c.catalog.ByInfinitive(progress.VerbOfDay)
	if !ok {
		c.log.Warn("Stored verb is missing from catalog", "user_id", userID, "verb", progress.VerbOfDay)
		return models.Verb{}, false, nil
	}
	return verb, true, nil
}

// Outcome is the result of a quiz answer
type Outcome int

const (
	OutcomeInvalid Outcome = iota
	OutcomeNotYours
	OutcomeCorrect
	OutcomeWrong
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotYours:
		return "not_yours"
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	}
	return "invalid"
}

// Callback is a press on a quiz button
type Callback struct {
	ID      string
	Data    string
	From    int64 // responding user
	Message MessageRef
	Text    string // text of the quiz message
}

// HandleQuizAnswer validates a quiz answer and appends the verdict to the
// quiz message. Malformed payloads and answers from another user only get a
// notice. Progress is never touched.
func (c *Controller) HandleQuizAnswer(ctx context.Context, cb Callback) (Outcome, error) {
	payload, err := quiz.Decode(cb.Data)
	if err != nil {
		c.log.Warn("Rejected quiz answer", "user_id", cb.From, "error", err)
		return OutcomeInvalid, c.gateway.Notify(ctx, cb.ID, NoticeInvalidQuiz)
	}

	if payload.UserID != cb.From {
		c.log.Info("Quiz answered by another user", "user_id", cb.From, "target_user_id", payload.UserID)
		return OutcomeNotYours, c.gateway.Notify(ctx, cb.ID, NoticeNotYourQuiz)
	}

	outcome := OutcomeWrong
	if payload.IsCorrect {
		outcome = OutcomeCorrect
	}

	if err := c.gateway.EditMessage(ctx, cb.Message, cb.Text+verdict(payload)); err != nil {
		return outcome, fmt.Errorf("edit quiz message: %w", err)
	}
	if err := c.gateway.Notify(ctx, cb.ID, ""); err != nil {
		return outcome, err
	}

	c.log.Info("Quiz answered", "user_id", cb.From, "quiz", string(payload.Kind), "outcome", outcome.String())
	return outcome, nil
}
