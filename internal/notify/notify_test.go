package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/eduhere-client/internal/models"
)

func TestAttendanceMessage(t *testing.T) {
	u := models.AttendanceUpdate{Date: "2025-03-14", Status: "late"}
	title, body := AttendanceMessage(u, "Math")
	if title != "Attendance Updated" || body != "Your attendance for Math on 2025-03-14 has been marked as RETARD." {
		t.Fatalf("unexpected message %q / %q", title, body)
	}
	u.Status = "whatever"
	if _, body := AttendanceMessage(u, ""); body != "Your attendance on 2025-03-14 has been marked as NOT SET." {
		t.Fatalf("unexpected message %q", body)
	}
}

type fakeTelegram struct {
	mu       sync.Mutex
	texts    []string
	sendCode int
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"edu","username":"edu_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.texts = append(f.texts, r.FormValue("text"))
		code := f.sendCode
		f.mu.Unlock()
		if code != 0 {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":` + strconv.Itoa(code) + `,"description":"Too Many Requests: retry after 1"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		http.NotFound(w, r)
	}
}

func TestTelegramNotify(t *testing.T) {
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	tg, err := NewTelegramWithEndpoint("TOKEN", srv.URL+"/bot%s/%s", 42, srv.Client(), nil)
	if err != nil {
		t.Fatalf("new telegram: %v", err)
	}
	if err := tg.Notify(context.Background(), AttendanceTitle, "Your attendance on 2025-03-14 has been marked as PRESENT."); err != nil {
		t.Fatalf("notify: %v", err)
	}
	fake.mu.Lock()
	texts := append([]string(nil), fake.texts...)
	fake.mu.Unlock()
	if len(texts) != 1 || !strings.Contains(texts[0], "PRESENT") {
		t.Fatalf("unexpected sent texts %q", texts)
	}

	fake.mu.Lock()
	fake.sendCode = 429
	fake.mu.Unlock()
	err = tg.Notify(context.Background(), "", "x")
	if err == nil || !isSystemErr(err) {
		t.Fatalf("expected a system error for 429, got %v", err)
	}
	if isSystemErr(tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}) {
		t.Fatalf("400 must not be a system error")
	}
}

type failing struct{}

func (failing) Notify(context.Context, string, string) error { return errors.New("down") }

func TestMulti(t *testing.T) {
	m := Multi{Log{}, failing{}, Log{}}
	if err := m.Notify(context.Background(), "t", "b"); err == nil || err.Error() != "down" {
		t.Fatalf("expected joined error, got %v", err)
	}
}
