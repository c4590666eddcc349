package verbs

import (
	"errors"
	"math/rand"

	"github.com/example/verbbot/pkg/models"
)

// Placeholder is rendered for a form missing from the source
const Placeholder = "—"

// ErrEmptyCatalog is returned when a random verb is requested from an empty catalog
var ErrEmptyCatalog = errors.New("verb catalog is empty")

// Field selects which verb attribute distractors are drawn from
type Field int

const (
	FieldTranslation Field = iota
	FieldInfinitive
)

// Value returns the attribute of v selected by f
func (f Field) Value(v models.Verb) string {
	if f == FieldInfinitive {
		return v.Infinitive
	}
	return v.Translation
}

// Rand is the randomness used for sampling; *rand.Rand satisfies it
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// globalRand uses the goroutine-safe top-level math/rand functions
type globalRand struct{}

func (globalRand) Intn(n int) int                     { return rand.Intn(n) }
func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Catalog is the read-only set of verbs and tense names
type Catalog struct {
	verbs  []models.Verb
	index  map[string]int
	tenses []string
	rnd    Rand
}

// New creates a catalog from already parsed verbs and the ordered tense names
func New(list []models.Verb, tenses []string) *Catalog {
	c := &Catalog{
		verbs:  list,
		index:  make(map[string]int, len(list)),
		tenses: tenses,
		rnd:    globalRand{},
	}
	for i, v := range list {
		c.index[v.Infinitive] = i
	}
	return c
}

// WithRand replaces the randomness source. The source must be safe for the
// catalog's concurrent use; a plain *rand.Rand is fine in single-goroutine tests.
func (c *Catalog) WithRand(r Rand) *Catalog {
	c.rnd = r
	return c
}

// Len returns the number of verbs
func (c *Catalog) Len() int {
	return len(c.verbs)
}

// Infinitives returns every infinitive in file order
func (c *Catalog) Infinitives() []string {
	out := make([]string, 0, len(c.verbs))
	for _, v := range c.verbs {
		out = append(out, v.Infinitive)
	}
	return out
}

// RandomVerb picks a verb uniformly
func (c *Catalog) RandomVerb() (models.Verb, error) {
	if len(c.verbs) == 0 {
		return models.Verb{}, ErrEmptyCatalog
	}
	return c.verbs[c.rnd.Intn(len(c.verbs))], nil
}

// ByInfinitive looks up a verb by exact infinitive
func (c *Catalog) ByInfinitive(name string) (models.Verb, bool) {
	i, ok := c.index[name]
	if !ok {
		return models.Verb{}, false
	}
	return c.verbs[i], true
}

// TenseNames returns tense names in delivery order
func (c *Catalog) TenseNames() []string {
	out := make([]string, len(c.tenses))
	copy(out, c.tenses)
	return out
}

// HasTense reports whether the tense belongs to the catalog
func (c *Catalog) HasTense(tense string) bool {
	for _, t := range c.tenses {
		if t == tense {
			return true
		}
	}
	return false
}

// TenseForms returns the six forms of a tense in person order
func (c *Catalog) TenseForms(v models.Verb, tense string) []string {
	forms := make([]string, 0, len(models.Persons))
	for _, person := range models.Persons {
		form, ok := v.Forms[models.FormKey(tense, person)]
		if !ok || form == "" {
			form = Placeholder
		}
		forms = append(forms, form)
	}
	return forms
}

// RandomDistractors samples up to count distinct values of field, all different from exclude
func (c *Catalog) RandomDistractors(exclude string, field Field, count int) []string {
	seen := map[string]bool{exclude: true}
	var pool []string
	for _, v := range c.verbs {
		value := field.Value(v)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		pool = append(pool, value)
	}

	c.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if count < 0 {
		count = 0
	}
	if len(pool) > count {
		pool = pool[:count]
	}
	return pool
}
