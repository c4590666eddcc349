package quiz

import (
	"github.com/example/verbbot/internal/verbs"
	"github.com/example/verbbot/pkg/models"
)

// DistractorCount is the number of wrong options in a quiz
const DistractorCount = 3

// Kind represents the two quiz directions
type Kind string

const (
	// Translation asks for the translation of the infinitive
	Translation Kind = "q1"
	// Infinitive asks for the infinitive of the translation
	Infinitive Kind = "q2"
)

// Field returns the verb attribute holding the correct answer
func (k Kind) Field() verbs.Field {
	if k == Infinitive {
		return verbs.FieldInfinitive
	}
	return verbs.FieldTranslation
}

func (k Kind) valid() bool {
	return k == Translation || k == Infinitive
}

// Option is a single answer button
type Option struct {
	Text    string
	Payload Payload
}

// Question represents a quiz about one verb addressed to one user
type Question struct {
	Kind    Kind
	Verb    models.Verb
	Correct string
	Options []Option
}

// Distractors samples wrong answers; *verbs.Catalog satisfies it
type Distractors interface {
	RandomDistractors(exclude string, field verbs.Field, count int) []string
}

// Shuffler randomizes option order; *rand.Rand satisfies it
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Compose returns the correct value and the distractors in random order.
// Blank values, duplicates and distractors equal to the correct value are dropped.
func Compose(correct string, distractors []string, rnd Shuffler) []string {
	seen := map[string]bool{correct: true}
	options := []string{correct}
	for _, d := range distractors {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		options = append(options, d)
	}

	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

// New builds a quiz of kind about verb for userID
func New(kind Kind, verb models.Verb, userID int64, src Distractors, rnd Shuffler) Question {
	correct := kind.Field().Value(verb)
	texts := Compose(correct, src.RandomDistractors(correct, kind.Field(), DistractorCount), rnd)

	q := Question{
		Kind:    kind,
		Verb:    verb,
		Correct: correct,
		Options: make([]Option, 0, len(texts)),
	}
	for _, text := range texts {
		q.Options = append(q.Options, Option{
			Text: text,
			Payload: Payload{
				Kind:      kind,
				UserID:    userID,
				IsCorrect: text == correct,
				Correct:   correct,
			},
		})
	}
	return q
}

// Validate checks that every answer button can be delivered
func (q Question) Validate() error {
	for _, o := range q.Options {
		if err := o.Payload.Validate(); err != nil {
			return err
		}
	}
	return nil
}
