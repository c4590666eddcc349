package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/verbbot/internal/config"
	"github.com/example/verbbot/internal/flow"
	"github.com/example/verbbot/internal/logger"
	"github.com/example/verbbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type apiCall struct {
	Method string
	Form   url.Values
}

// telegramServer fakes the Bot API methods used by the bot
type telegramServer struct {
	mu    sync.Mutex
	calls []apiCall
}

func (s *telegramServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	method := path.Base(r.URL.Path)

	s.mu.Lock()
	s.calls = append(s.calls, apiCall{Method: method, Form: r.PostForm})
	s.mu.Unlock()

	var result interface{}
	switch method {
	case "getMe":
		result = map[string]interface{}{"id": 1, "is_bot": true, "first_name": "Verbs", "username": "verbbot"}
	case "sendMessage", "editMessageText":
		chatID, _ := strconv.ParseInt(r.PostForm.Get("chat_id"), 10, 64)
		result = map[string]interface{}{
			"message_id": 100,
			"date":       0,
			"chat":       map[string]interface{}{"id": chatID, "type": "private"},
			"text":       r.PostForm.Get("text"),
		}
	default:
		result = true
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": result})
}

func (s *telegramServer) byMethod(method string) []apiCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []apiCall
	for _, c := range s.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func newTestAPI(t *testing.T) (*tgbotapi.BotAPI, *telegramServer) {
	t.Helper()
	fake := &telegramServer{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	api, err := tgbotapi.NewBotAPIWithClient("test-token", server.URL+"/bot%s/%s", server.Client())
	require.NoError(t, err)
	return api, fake
}

type fakeController struct {
	created   bool
	status    flow.Status
	testTotal time.Duration
	err       error

	mu sync.Mutex
	// block holds Status until closed
	block       chan struct{}
	statusCalls atomic.Int32

	registered []int64
	resets     []int64
	tests      []int64
	answers    []flow.Callback
}

func (c *fakeController) Register(_ context.Context, userID int64) (bool, error) {
	c.mu.Lock()
	c.registered = append(c.registered, userID)
	c.mu.Unlock()
	return c.created, c.err
}

func (c *fakeController) Status(context.Context, int64) (flow.Status, error) {
	c.statusCalls.Add(1)
	if c.block != nil {
		<-c.block
	}
	return c.status, c.err
}

func (c *fakeController) StartTestFlow(_ context.Context, userID int64) (time.Duration, error) {
	c.mu.Lock()
	c.tests = append(c.tests, userID)
	c.mu.Unlock()
	return c.testTotal, c.err
}

func (c *fakeController) ResetProgress(_ context.Context, userID int64) error {
	c.mu.Lock()
	c.resets = append(c.resets, userID)
	c.mu.Unlock()
	return c.err
}

func (c *fakeController) HandleQuizAnswer(_ context.Context, cb flow.Callback) (flow.Outcome, error) {
	c.mu.Lock()
	c.answers = append(c.answers, cb)
	c.mu.Unlock()
	return flow.OutcomeCorrect, c.err
}

func newTestBot(t *testing.T, ctrl *fakeController) (*Bot, *telegramServer) {
	t.Helper()
	api, fake := newTestAPI(t)
	cfg := &config.Config{Schedule: config.DefaultSchedule(), AdminUserIDs: map[int64]bool{1: true}}
	return New(api, NewGateway(api), ctrl, cfg, nil), fake
}

func command(userID int64, text string) tgbotapi.Update {
	cmd := strings.SplitN(text, " ", 2)[0]
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: userID},
			Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
		},
	}
}

func TestGatewaySendMessageWithButtons(t *testing.T) {
	api, fake := newTestAPI(t)
	g := NewGateway(api)

	ref, err := g.SendMessage(context.Background(), 42, "🎯 Квиз", []flow.Button{
		{Text: "есть", Data: "q1_42_True_есть"},
		{Text: "жить", Data: "q1_42_False_есть"},
	})
	require.NoError(t, err)
	assert.Equal(t, flow.MessageRef{ChatID: 42, MessageID: 100}, ref)

	calls := fake.byMethod("sendMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, "42", calls[0].Form.Get("chat_id"))
	assert.Equal(t, "🎯 Квиз", calls[0].Form.Get("text"))

	var markup tgbotapi.InlineKeyboardMarkup
	require.NoError(t, json.Unmarshal([]byte(calls[0].Form.Get("reply_markup")), &markup))
	require.Len(t, markup.InlineKeyboard, 2, "one button per row")
	assert.Equal(t, "есть", markup.InlineKeyboard[0][0].Text)
	require.NotNil(t, markup.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "q1_42_False_есть", *markup.InlineKeyboard[1][0].CallbackData)
}

func TestGatewayEditAndNotify(t *testing.T) {
	api, fake := newTestAPI(t)
	g := NewGateway(api)
	ctx := context.Background()

	require.NoError(t, g.EditMessage(ctx, flow.MessageRef{ChatID: 42, MessageID: 7}, "done"))
	edits := fake.byMethod("editMessageText")
	require.Len(t, edits, 1)
	assert.Equal(t, "7", edits[0].Form.Get("message_id"))
	assert.Equal(t, "done", edits[0].Form.Get("text"))

	require.NoError(t, g.Notify(ctx, "cb1", ""))
	require.NoError(t, g.Notify(ctx, "cb2", flow.NoticeNotYourQuiz))
	answers := fake.byMethod("answerCallbackQuery")
	require.Len(t, answers, 2)
	assert.Equal(t, "cb1", answers[0].Form.Get("callback_query_id"))
	assert.NotEqual(t, "true", answers[0].Form.Get("show_alert"))
	assert.Equal(t, "true", answers[1].Form.Get("show_alert"))
	assert.Equal(t, flow.NoticeNotYourQuiz, answers[1].Form.Get("text"))
}

func TestStartCommand(t *testing.T) {
	tests := []struct {
		name    string
		created bool
		want    string
	}{
		{name: "new user", created: true, want: "Привет"},
		{name: "returning user", created: false, want: "С возвращением"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{created: tt.created}
			b, fake := newTestBot(t, ctrl)

			b.HandleUpdate(context.Background(), command(42, "/start"))

			assert.Equal(t, []int64{42}, ctrl.registered)
			sent := fake.byMethod("sendMessage")
			require.Len(t, sent, 1)
			assert.Contains(t, sent[0].Form.Get("text"), tt.want)
		})
	}
}

func TestStatusCommand(t *testing.T) {
	ctrl := &fakeController{status: flow.Status{
		Registered: true,
		Verb:       &models.Verb{Infinitive: "comer", Translation: "есть"},
		State:      flow.State{Stage: flow.StageTenseSlot, Verb: "comer", Slot: 1, NextTense: "preterito"},
	}}
	b, fake := newTestBot(t, ctrl)

	b.HandleUpdate(context.Background(), command(42, "/status"))

	sent := fake.byMethod("sendMessage")
	require.Len(t, sent, 1)
	text := sent[0].Form.Get("text")
	assert.Contains(t, text, "comer — есть")
	assert.Contains(t, text, "preterito")
}

func TestTestCommand(t *testing.T) {
	ctrl := &fakeController{testTotal: 50 * time.Second}
	b, fake := newTestBot(t, ctrl)

	b.HandleUpdate(context.Background(), command(42, "/test"))

	assert.Equal(t, []int64{42}, ctrl.tests)
	sent := fake.byMethod("sendMessage")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Form.Get("text"), "50s")
}

func TestResetCommand(t *testing.T) {
	tests := []struct {
		name       string
		from       int64
		text       string
		wantResets []int64
		wantReply  string
	}{
		{name: "not admin", from: 42, text: "/reset", wantReply: textAdminOnly},
		{name: "admin self", from: 1, text: "/reset", wantResets: []int64{1}, wantReply: resetDoneText(1)},
		{name: "admin other", from: 1, text: "/reset 42", wantResets: []int64{42}, wantReply: resetDoneText(42)},
		{name: "bad id", from: 1, text: "/reset abc", wantReply: textResetUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			b, fake := newTestBot(t, ctrl)

			b.HandleUpdate(context.Background(), command(tt.from, tt.text))

			assert.Equal(t, tt.wantResets, ctrl.resets)
			sent := fake.byMethod("sendMessage")
			require.Len(t, sent, 1)
			assert.Equal(t, tt.wantReply, sent[0].Form.Get("text"))
		})
	}
}

func TestCommandFailureRepliesWithError(t *testing.T) {
	ctrl := &fakeController{err: assert.AnError}
	b, fake := newTestBot(t, ctrl)

	b.HandleUpdate(context.Background(), command(42, "/status"))

	sent := fake.byMethod("sendMessage")
	require.Len(t, sent, 1)
	assert.Equal(t, textError, sent[0].Form.Get("text"))
}

func TestCallbackRoutedToController(t *testing.T) {
	ctrl := &fakeController{}
	b, _ := newTestBot(t, ctrl)

	b.HandleUpdate(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb",
			From: &tgbotapi.User{ID: 42},
			Data: "q2_42_True_comer",
			Message: &tgbotapi.Message{
				MessageID: 9,
				Chat:      &tgbotapi.Chat{ID: 42},
				Text:      "🎯 Квиз №2",
			},
		},
	})

	require.Len(t, ctrl.answers, 1)
	assert.Equal(t, flow.Callback{
		ID:      "cb",
		Data:    "q2_42_True_comer",
		From:    42,
		Message: flow.MessageRef{ChatID: 42, MessageID: 9},
		Text:    "🎯 Квиз №2",
	}, ctrl.answers[0])
}

func TestCallbackWithoutMessage(t *testing.T) {
	ctrl := &fakeController{}
	b, fake := newTestBot(t, ctrl)

	b.HandleUpdate(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{ID: "cb", From: &tgbotapi.User{ID: 42}, Data: "q1_42_True_x"},
	})

	assert.Empty(t, ctrl.answers)
	answers := fake.byMethod("answerCallbackQuery")
	require.Len(t, answers, 1)
	assert.Equal(t, flow.NoticeInvalidQuiz, answers[0].Form.Get("text"))
}

func TestServeStopsWhileHandlersAreBusy(t *testing.T) {
	ctrl := &fakeController{block: make(chan struct{})}
	b, _ := newTestBot(t, ctrl)
	core, logs := observer.New(zap.DebugLevel)
	b.log = &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	b.maxInFlight = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := make(chan tgbotapi.Update)
	done := make(chan struct{})
	go func() {
		b.serve(ctx, updates)
		close(done)
	}()

	updates <- command(42, "/status")
	// Received while the only slot is taken
	updates <- command(43, "/status")
	cancel()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Shutting down, update dropped").Len() == 1
	}, 5*time.Second, 10*time.Millisecond, "waiting for a slot must not outlive ctx")

	close(ctrl.block)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the busy handler finished")
	}
	assert.Equal(t, int32(1), ctrl.statusCalls.Load())
}

func TestServeReturnsWhenUpdatesClose(t *testing.T) {
	ctrl := &fakeController{}
	b, fake := newTestBot(t, ctrl)

	updates := make(chan tgbotapi.Update, 2)
	updates <- command(42, "/start")
	updates <- command(43, "/start")
	close(updates)

	b.serve(context.Background(), updates)

	assert.Len(t, fake.byMethod("sendMessage"), 2, "handlers finish before serve returns")
}
