// Package flow drives each user's day: verb of the day, two quizzes and the
// hourly tense drip. Progress is derived from the store on every trigger, so
// any action may be fired late, early or twice without corrupting state.
package flow

import (
	"context"
	"math/rand"
	"time"

	"github.com/example/verbbot/internal/config"
	"github.com/example/verbbot/internal/logger"
	"github.com/example/verbbot/internal/quiz"
	"github.com/example/verbbot/pkg/models"
)

// DayLayout formats day keys
const DayLayout = "2006-01-02"

// Store is the progress persistence used by the controller
type Store interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	CreateUser(ctx context.Context, userID int64) (bool, error)
	AllUserIDs(ctx context.Context) ([]int64, error)
	SetVerbOfDay(ctx context.Context, userID int64, infinitive, day string) (string, bool, error)
	Progress(ctx context.Context, userID int64, day string) (*models.DailyProgress, error)
	MarkTenseSent(ctx context.Context, userID int64, verb, tense, day string) error
	ResetDailyProgress(ctx context.Context, userID int64) error
}

// Catalog is the read-only verb data
type Catalog interface {
	quiz.Distractors
	RandomVerb() (models.Verb, error)
	ByInfinitive(name string) (models.Verb, bool)
	TenseNames() []string
	TenseForms(v models.Verb, tense string) []string
}

// Button is an inline answer button
type Button struct {
	Text string
	Data string
}

// MessageRef identifies a delivered message
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Gateway delivers content to users
type Gateway interface {
	SendMessage(ctx context.Context, userID int64, text string, buttons []Button) (MessageRef, error)
	EditMessage(ctx context.Context, ref MessageRef, text string) error
	// Notify answers a button press, showing text as an alert when non-empty
	Notify(ctx context.Context, callbackID, text string) error
}

// Scheduler fires tasks at wall-clock times. Scheduling under a slot that
// already has a pending task replaces it.
type Scheduler interface {
	Daily(slot, at string, task func()) error
	Once(slot string, at time.Time, task func()) error
}

// Options configures a Controller
type Options struct {
	Store     Store
	Catalog   Catalog
	Gateway   Gateway
	Scheduler Scheduler
	Schedule  config.Schedule
	Location  *time.Location
	Logger    *logger.Logger

	// Optional, for tests
	Now  func() time.Time
	Rand quiz.Shuffler
}

// Controller orchestrates the daily progression of every user
type Controller struct {
	store    Store
	catalog  Catalog
	gateway  Gateway
	sched    Scheduler
	schedule config.Schedule
	loc      *time.Location
	log      *logger.Logger
	now      func() time.Time
	rnd      quiz.Shuffler

	triggerTimeout time.Duration
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// New creates a controller
func New(opts Options) *Controller {
	c := &Controller{
		store:          opts.Store,
		catalog:        opts.Catalog,
		gateway:        opts.Gateway,
		sched:          opts.Scheduler,
		schedule:       opts.Schedule,
		loc:            opts.Location,
		log:            opts.Logger,
		now:            opts.Now,
		rnd:            opts.Rand,
		triggerTimeout: time.Minute,
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.rnd == nil {
		c.rnd = globalShuffler{}
	}
	return c
}

// Today returns the current day key in the bot timezone
func (c *Controller) Today() string {
	return c.now().In(c.loc).Format(DayLayout)
}
