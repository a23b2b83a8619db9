package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/m-mizutani/gt"
	"github.com/user/codehubnotify/internal/storage"
)

func newTestBot(api *fakeAPI) *Bot {
	backend := storage.NewMemoryBackend()
	interp := NewInterpreter(storage.NewSubscriptionStore(backend), storage.NewPendingStore(backend), "https://bot.example.com/github")
	return NewBot(&tgbotapi.BotAPI{}, interp, NewSender(api, 0))
}

func TestBot_ServeHTTPRepliesToCommand(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api)

	body := `{"update_id":1,"message":{"message_id":7,"text":"/help","chat":{"id":555,"type":"private"}}}`
	w := httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/telegram/token", strings.NewReader(body)))

	gt.Equal(t, w.Code, http.StatusOK)
	gt.Number(t, len(api.sent)).Equal(1)
	gt.Equal(t, api.sent[0].ChatID, int64(555))
	gt.String(t, api.sent[0].Text).Contains("Available Commands")
}

func TestBot_ServeHTTPGroupSilence(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api)

	body := `{"update_id":2,"message":{"message_id":8,"text":"just chatting","chat":{"id":-1001,"type":"group"}}}`
	w := httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/telegram/token", strings.NewReader(body)))

	gt.Equal(t, w.Code, http.StatusOK)
	gt.Number(t, len(api.sent)).Equal(0)
}

func TestBot_ServeHTTPIgnoresNonMessages(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api)

	w := httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/telegram/token", strings.NewReader(`{"update_id":3}`)))

	gt.Equal(t, w.Code, http.StatusOK)
	gt.Number(t, len(api.sent)).Equal(0)
}

func TestBot_ServeHTTPBadRequest(t *testing.T) {
	b := newTestBot(&fakeAPI{})

	w := httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/telegram/token", strings.NewReader(`{broken`)))
	gt.Equal(t, w.Code, http.StatusBadRequest)

	w = httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/telegram/token", nil))
	gt.Equal(t, w.Code, http.StatusBadRequest)
}
