package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/requisition"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleRequisition() requisition.Requisition {
	return requisition.Requisition{
		ID:            "req-1",
		RequesterID:   "org-1",
		RequesterName: "Clinic <A>",
		ProductName:   "СЗП",
		Unit:          "litr",
		Variant:       "0.200",
		Quantity:      3,
		CreatedAt:     time.Date(2025, 4, 7, 9, 30, 0, 0, time.UTC),
		Status:        requisition.StatusPending,
	}
}

func TestFormatMessage(t *testing.T) {
	msg := FormatMessage(sampleRequisition())

	assert.True(t, strings.HasPrefix(msg, "📢 <b>Yangi Talabnoma</b>\n\n"))
	assert.Contains(t, msg, "🏢 <b>Tashkilot:</b> Clinic &lt;A&gt;\n")
	assert.Contains(t, msg, "<b>Hajmi:</b> 0.200\n")
	assert.Contains(t, msg, "🩸 <b>Guruh:</b> -\n")
	assert.Contains(t, msg, "🔢 <b>Soni:</b> 3 litr\n")
	assert.True(t, strings.HasSuffix(msg, "📝 <b>Izoh:</b> Yo'q"), msg)
}

func TestFormatMessage_EscapesOnlyReservedCharacters(t *testing.T) {
	r := sampleRequisition()
	r.Comment = `Bemor "O'g'il" & <shoshilinch>`

	msg := FormatMessage(r)

	assert.True(t, strings.HasSuffix(msg, `📝 <b>Izoh:</b> Bemor "O'g'il" &amp; &lt;shoshilinch&gt;`), msg)
	assert.NotContains(t, msg, "&#39;")
	assert.NotContains(t, msg, "&#34;")
}

// =============================================================================
// TELEGRAM
// =============================================================================

type staticConfig catalog.NotifierConfig

func (c staticConfig) NotifierConfig(context.Context) (catalog.NotifierConfig, error) {
	return catalog.NotifierConfig(c), nil
}

type botServer struct {
	*httptest.Server
	mu    sync.Mutex
	paths []string
	last  sendMessageRequest
}

func newBotServer(t *testing.T, status int) *botServer {
	b := &botServer{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.paths = append(b.paths, r.URL.Path)
		json.NewDecoder(r.Body).Decode(&b.last)
		w.WriteHeader(status)
		io.WriteString(w, `{"ok":false,"description":"chat not found"}`)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *botServer) requests() ([]string, sendMessageRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.paths...), b.last
}

func TestTelegram_Notify(t *testing.T) {
	bot := newBotServer(t, http.StatusOK)
	tg := NewTelegram(staticConfig{BotToken: "123:abc", ChatID: "-100"}, bot.URL)
	tg.Log = quietLogger()

	require.NoError(t, tg.Notify(context.Background(), sampleRequisition()))

	paths, last := bot.requests()
	require.Equal(t, []string{"/bot123:abc/sendMessage"}, paths)
	assert.Equal(t, "-100", last.ChatID)
	assert.Equal(t, "HTML", last.ParseMode)
	assert.Contains(t, last.Text, "Yangi Talabnoma")
}

func TestTelegram_SkipsWhenUnconfigured(t *testing.T) {
	bot := newBotServer(t, http.StatusOK)
	tg := NewTelegram(staticConfig{ChatID: "-100"}, bot.URL)
	tg.Log = quietLogger()

	require.NoError(t, tg.Notify(context.Background(), sampleRequisition()))
	paths, _ := bot.requests()
	assert.Empty(t, paths)
}

func TestTelegram_SendTest(t *testing.T) {
	bot := newBotServer(t, http.StatusBadRequest)
	tg := NewTelegram(staticConfig{}, bot.URL)

	err := tg.SendTest(context.Background(), catalog.NotifierConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	err = tg.SendTest(context.Background(), catalog.NotifierConfig{BotToken: "t", ChatID: "c"})
	assert.ErrorContains(t, err, "400")
	_, last := bot.requests()
	assert.Equal(t, TestMessage, last.Text)
}

func TestTelegram_ErrorHidesToken(t *testing.T) {
	tg := NewTelegram(staticConfig{}, "http://127.0.0.1:1")

	err := tg.SendTest(context.Background(), catalog.NotifierConfig{BotToken: "secret-token", ChatID: "c"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

// =============================================================================
// MULTI / KAFKA
// =============================================================================

type countingNotifier struct {
	mu   sync.Mutex
	got  []string
	err  error
	wait chan struct{}
}

func (c *countingNotifier) Notify(_ context.Context, r requisition.Requisition) error {
	if c.wait != nil {
		<-c.wait
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, r.ID)
	return c.err
}

func (c *countingNotifier) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.got...)
}

func TestMulti_AttemptsAll(t *testing.T) {
	failing := &countingNotifier{err: errors.New("down")}
	ok := &countingNotifier{}

	err := Multi{failing, ok}.Notify(context.Background(), sampleRequisition())

	assert.ErrorContains(t, err, "down")
	assert.Equal(t, []string{"req-1"}, ok.ids())
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafka_PublishesEvent(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{writer: w}

	require.NoError(t, k.Notify(context.Background(), sampleRequisition()))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "org-1", string(w.msgs[0].Key))
	var ev Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, EventRequisitionCreated, ev.Type)
	assert.Equal(t, "req-1", ev.Requisition.ID)
}

// =============================================================================
// DISPATCHER
// =============================================================================

func TestDispatcher_DeliversAndDrainsOnStop(t *testing.T) {
	target := &countingNotifier{}
	d := NewDispatcher(target, "test")
	d.Log = quietLogger()
	d.Start()

	for _, id := range []string{"a", "b", "c"} {
		r := sampleRequisition()
		r.ID = id
		require.NoError(t, d.Notify(context.Background(), r))
	}
	d.Stop()

	assert.Equal(t, []string{"a", "b", "c"}, target.ids())
	assert.ErrorIs(t, d.Notify(context.Background(), sampleRequisition()), ErrDispatcherStopped)
}

func TestDispatcher_FullQueueDrops(t *testing.T) {
	// the worker blocks on the first event until released
	target := &countingNotifier{wait: make(chan struct{})}
	d := NewDispatcher(target, "test")
	d.Log = quietLogger()
	d.QueueSize = 1
	d.Start()

	first := sampleRequisition()
	first.ID = "first"
	require.NoError(t, d.Notify(context.Background(), first))

	// the worker takes "first" off the queue eventually; keep enqueueing
	// until the single slot is occupied and a send is refused
	var full error
	for i := 0; i < 100 && full == nil; i++ {
		full = d.Notify(context.Background(), sampleRequisition())
		if full == nil {
			time.Sleep(time.Millisecond)
		}
	}
	assert.ErrorIs(t, full, ErrQueueFull)

	close(target.wait)
	d.Stop()
	assert.Contains(t, target.ids(), "first")
}

func TestDispatcher_FailureDoesNotStopWorker(t *testing.T) {
	target := &countingNotifier{err: errors.New("bot down")}
	d := NewDispatcher(target, "test")
	d.Log = quietLogger()
	d.Start()

	require.NoError(t, d.Notify(context.Background(), sampleRequisition()))
	require.NoError(t, d.Notify(context.Background(), sampleRequisition()))
	d.Stop()

	assert.Len(t, target.ids(), 2)
}
