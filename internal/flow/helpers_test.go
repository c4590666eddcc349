package flow

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/verbbot/internal/config"
	"github.com/example/verbbot/internal/database"
	"github.com/example/verbbot/internal/verbs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `infinitivo,translation_ru,presente__1s,presente__2s,presente__3s,presente__1p,presente__2p,presente__3p,preterito__1s,preterito__2s,preterito__3s,preterito__1p,preterito__2p,preterito__3p
hablar,говорить,hablo,hablas,habla,hablamos,habláis,hablan,hablé,hablaste,habló,hablamos,hablasteis,hablaron
comer,есть,como,comes,come,comemos,coméis,comen,comí,comiste,comió,comimos,comisteis,comieron
vivir,жить,vivo,vives,vive,vivimos,vivís,viven,viví,viviste,vivió,vivimos,vivisteis,vivieron
tener,иметь,tengo,tienes,tiene,tenemos,tenéis,tienen,tuve,tuviste,tuvo,tuvimos,tuvisteis,tuvieron
`

type sentMessage struct {
	UserID  int64
	Text    string
	Buttons []Button
	Ref     MessageRef
}

type editedMessage struct {
	Ref  MessageRef
	Text string
}

type notice struct {
	CallbackID string
	Text       string
}

type fakeGateway struct {
	mu      sync.Mutex
	sent    []sentMessage
	edits   []editedMessage
	notices []notice
	sendErr error
	nextID  int
	// onSend runs before a message is recorded, outside the lock
	onSend func()
}

func (g *fakeGateway) SendMessage(_ context.Context, userID int64, text string, buttons []Button) (MessageRef, error) {
	if hook := g.onSend; hook != nil {
		g.onSend = nil
		hook()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return MessageRef{}, g.sendErr
	}
	g.nextID++
	ref := MessageRef{ChatID: userID, MessageID: g.nextID}
	g.sent = append(g.sent, sentMessage{UserID: userID, Text: text, Buttons: buttons, Ref: ref})
	return ref, nil
}

func (g *fakeGateway) EditMessage(_ context.Context, ref MessageRef, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edits = append(g.edits, editedMessage{Ref: ref, Text: text})
	return nil
}

func (g *fakeGateway) Notify(_ context.Context, callbackID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notices = append(g.notices, notice{CallbackID: callbackID, Text: text})
	return nil
}

func (g *fakeGateway) messages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage(nil), g.sent...)
}

func (g *fakeGateway) last(t *testing.T) sentMessage {
	t.Helper()
	msgs := g.messages()
	require.NotEmpty(t, msgs, "no message sent")
	return msgs[len(msgs)-1]
}

type scheduledTask struct {
	At   string    // daily tasks
	When time.Time // one-shot tasks
	Task func()
}

type fakeScheduler struct {
	mu    sync.Mutex
	slots map[string]scheduledTask
	err   error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{slots: make(map[string]scheduledTask)}
}

func (s *fakeScheduler) Daily(slot, at string, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.slots[slot] = scheduledTask{At: at, Task: task}
	return nil
}

func (s *fakeScheduler) Once(slot string, at time.Time, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.slots[slot] = scheduledTask{When: at, Task: task}
	return nil
}

func (s *fakeScheduler) fire(t *testing.T, slot string) {
	t.Helper()
	s.mu.Lock()
	task, ok := s.slots[slot]
	s.mu.Unlock()
	require.True(t, ok, "slot %s not scheduled", slot)
	task.Task()
}

func (s *fakeScheduler) withPrefix(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for slot := range s.slots {
		if strings.HasPrefix(slot, prefix) {
			out = append(out, slot)
		}
	}
	return out
}

type fixture struct {
	ctrl    *Controller
	store   *database.Store
	catalog *verbs.Catalog
	gateway *fakeGateway
	sched   *fakeScheduler
	now     time.Time
}

func (f *fixture) setNow(ts time.Time) { f.now = ts }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog, err := verbs.LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	catalog.WithRand(rand.New(rand.NewSource(7)))

	store, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	f := &fixture{
		store:   store,
		catalog: catalog,
		gateway: &fakeGateway{},
		sched:   newFakeScheduler(),
		now:     time.Date(2026, 10, 17, 9, 0, 0, 0, loc),
	}
	f.ctrl = New(Options{
		Store:     store,
		Catalog:   catalog,
		Gateway:   f.gateway,
		Scheduler: f.sched,
		Schedule:  config.DefaultSchedule(),
		Location:  loc,
		Now:       func() time.Time { return f.now },
		Rand:      rand.New(rand.NewSource(3)),
	})
	return f
}

func (f *fixture) register(t *testing.T, userID int64) {
	t.Helper()
	_, err := f.ctrl.Register(context.Background(), userID)
	require.NoError(t, err)
}

var errBoom = errors.New("boom")
