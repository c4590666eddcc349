package models

// Persons lists grammatical persons in delivery order: 1st/2nd/3rd singular, then plural
var Persons = []string{"1s", "2s", "3s", "1p", "2p", "3p"}

// Verb represents a Spanish verb with its conjugation table
type Verb struct {
	Infinitive  string            `json:"infinitive"`
	Translation string            `json:"translation"`
	Forms       map[string]string `json:"forms"` // keyed by FormKey(tense, person)
}

// FormKey builds the composite column key used by the tabular source
func FormKey(tense, person string) string {
	return tense + "__" + person
}
