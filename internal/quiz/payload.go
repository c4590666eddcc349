package quiz

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxPayloadLen is the Telegram limit for callback data, in bytes
const MaxPayloadLen = 64

const (
	payloadSep = "_"
	tokenTrue  = "True"
	tokenFalse = "False"
)

var (
	// ErrMalformedPayload is returned for callback data that is not a quiz answer
	ErrMalformedPayload = errors.New("malformed quiz payload")
	// ErrPayloadTooLong is returned for payloads Telegram would reject
	ErrPayloadTooLong = errors.New("quiz payload exceeds callback data limit")
)

// Payload is the context embedded in every answer button
type Payload struct {
	Kind      Kind
	UserID    int64
	IsCorrect bool
	Correct   string
}

// Encode renders the payload as "<kind>_<userID>_<True|False>_<correct>"
func (p Payload) Encode() string {
	correct := tokenFalse
	if p.IsCorrect {
		correct = tokenTrue
	}
	return strings.Join([]string{string(p.Kind), strconv.FormatInt(p.UserID, 10), correct, p.Correct}, payloadSep)
}

// Validate checks the encoded payload against MaxPayloadLen
func (p Payload) Validate() error {
	if n := len(p.Encode()); n > MaxPayloadLen {
		return fmt.Errorf("%w: %d bytes for %q", ErrPayloadTooLong, n, p.Correct)
	}
	return nil
}

// Fits reports whether a quiz of kind whose correct answer is value stays
// within MaxPayloadLen for any user id
func Fits(kind Kind, value string) bool {
	return Payload{Kind: kind, UserID: math.MaxInt64, Correct: value}.Validate() == nil
}

// Decode parses callback data produced by Encode. The correct value may
// itself contain the separator, so everything after the third one is kept.
func Decode(data string) (Payload, error) {
	parts := strings.SplitN(data, payloadSep, 4)
	if len(parts) < 4 {
		return Payload{}, fmt.Errorf("%w: %d segments", ErrMalformedPayload, len(parts))
	}

	kind := Kind(parts[0])
	if !kind.valid() {
		return Payload{}, fmt.Errorf("%w: unknown quiz kind %q", ErrMalformedPayload, parts[0])
	}

	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: user id %q", ErrMalformedPayload, parts[1])
	}

	var isCorrect bool
	switch parts[2] {
	case tokenTrue:
		isCorrect = true
	case tokenFalse:
	default:
		return Payload{}, fmt.Errorf("%w: correctness flag %q", ErrMalformedPayload, parts[2])
	}

	return Payload{Kind: kind, UserID: userID, IsCorrect: isCorrect, Correct: parts[3]}, nil
}
