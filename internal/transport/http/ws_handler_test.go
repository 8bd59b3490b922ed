package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"dailygraph-quiz/internal/app"
	"dailygraph-quiz/internal/domain"
	"dailygraph-quiz/internal/infra/memory"
	"dailygraph-quiz/internal/quiz"
	"github.com/gorilla/websocket"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	service := newTestService(quiz.DefaultPolicy())
	server := httptest.NewServer(NewRouter(service, NewWSHandler(service, WithTickInterval(time.Hour)), RouterConfig{}))
	defer server.Close()

	conn := dial(t, server, "/ws?entryId=ca-1&learnerId=u1")
	defer conn.Close()

	_, session := readNext(conn, t, "session")
	if session["learnerId"] != "u1" || session["title"] != "Daily Current Affairs" {
		t.Fatalf("unexpected session payload %v", session)
	}
	_, state := readNext(conn, t, "state")
	if state["mode"] != "attempt" || state["timeRemaining"].(float64) != 120 {
		t.Fatalf("unexpected initial state %v", state)
	}

	write(t, conn, "select", map[string]any{"index": 0, "label": "a"})
	readNext(conn, t, "state")
	write(t, conn, "next", nil)
	readNext(conn, t, "state")
	write(t, conn, "select", map[string]any{"index": 1, "label": "A"})
	readNext(conn, t, "state")

	write(t, conn, "submit", nil)
	_, result := readNext(conn, t, "result")
	if result["score"].(float64) != 0.75 || result["total"].(float64) != 2 {
		t.Fatalf("unexpected result %v", result)
	}
	_, state = readNext(conn, t, "state")
	if state["mode"] != "review" || state["index"].(float64) != 0 {
		t.Fatalf("expected review at question 0, got %v", state)
	}

	write(t, conn, "select", map[string]any{"index": 0, "label": "B"})
	_, errPayload := readNext(conn, t, "error")
	if errPayload["message"] != domain.ErrReadOnly.Error() {
		t.Fatalf("expected read-only rejection, got %v", errPayload)
	}

	write(t, conn, "bogus", nil)
	readNext(conn, t, "error")
}

func TestWebSocketSaveExitThenReview(t *testing.T) {
	service := newTestService(quiz.DefaultPolicy())
	server := httptest.NewServer(NewRouter(service, NewWSHandler(service, WithTickInterval(time.Hour)), RouterConfig{}))
	defer server.Close()

	conn := dial(t, server, "/ws?entryId=ca-1&learnerId=u1")
	readNext(conn, t, "session")
	readNext(conn, t, "state")
	write(t, conn, "select", map[string]any{"index": 0, "label": "A"})
	readNext(conn, t, "state")
	write(t, conn, "saveExit", nil)
	_, saved := readNext(conn, t, "saved")
	if saved["entryId"] != "ca-1" {
		t.Fatalf("unexpected saved payload %v", saved)
	}
	_, state := readNext(conn, t, "state")
	if state["paused"] != true {
		t.Fatalf("expected paused state, got %v", state)
	}
	conn.Close()

	resumed := dial(t, server, "/ws?entryId=ca-1&learnerId=u1")
	defer resumed.Close()
	readNext(resumed, t, "session")
	_, state = readNext(resumed, t, "state")
	palette := state["palette"].([]any)
	if palette[0].(map[string]any)["state"] != "answered" {
		t.Fatalf("expected resumed answer, got %v", palette)
	}
}

func TestWebSocketCountdownAutoSubmits(t *testing.T) {
	policy := quiz.DefaultPolicy()
	policy.SecondsPerQuestion = 1
	service := newTestService(policy)
	server := httptest.NewServer(NewRouter(service, NewWSHandler(service, WithTickInterval(10*time.Millisecond)), RouterConfig{}))
	defer server.Close()

	conn := dial(t, server, "/ws?entryId=ca-1")
	defer conn.Close()
	_, session := readNext(conn, t, "session")
	if id, _ := session["learnerId"].(string); id == "" {
		t.Fatalf("expected generated learner id")
	}

	for i := 0; i < 10; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == "result" {
			if payload["total"].(float64) != 2 || payload["timeTakenSeconds"].(float64) != 2 {
				t.Fatalf("unexpected auto-submitted result %v", payload)
			}
			return
		}
	}
	t.Fatalf("expected auto-submit when the countdown ran out")
}

func TestWebSocketUnknownEntry(t *testing.T) {
	service := newTestService(quiz.DefaultPolicy())
	server := httptest.NewServer(NewRouter(service, NewWSHandler(service), RouterConfig{}))
	defer server.Close()

	conn := dial(t, server, "/ws?entryId=missing&learnerId=u1")
	defer conn.Close()
	_, payload := readNext(conn, t, "error")
	if payload["message"] != domain.ErrEntryNotFound.Error() {
		t.Fatalf("unexpected error %v", payload)
	}
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func write(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func newTestService(policy quiz.Policy) *app.QuizService {
	loader := memory.NewStaticEntryLoader(sampleEntry())
	return app.NewQuizService(memory.NewEntryRepository(loader, time.Minute), memory.NewKV(), policy)
}

func sampleEntry() domain.Entry {
	return domain.Entry{
		ID:         "ca-1",
		UploadDate: time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC),
		Source:     domain.SourceDaily,
		Content: domain.Content{
			Title: "Daily Current Affairs",
			Questions: []domain.Question{
				{
					QuestionPrimary: "What is 2 + 2?",
					Options: []domain.Option{
						{Label: "A", TextPrimary: "4"},
						{Label: "B", TextPrimary: "5"},
					},
					Answer: "A",
				},
				{
					QuestionPrimary: "What is 3 + 3?",
					Options: []domain.Option{
						{Label: "A", TextPrimary: "5"},
						{Label: "B", TextPrimary: "6"},
					},
					Answer: "B",
				},
			},
		},
	}
}
