package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"aula-lms/internal/domain"
	"aula-lms/internal/testutil"
	ws "aula-lms/internal/websocket"
)

func progressServer(t *testing.T, origins []string) (*ws.Hub, *httptest.Server) {
	t.Helper()
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := chi.NewRouter()
	r.Get("/ws/uploads/{upload_id}", NewProgressHandler(hub, origins).HandleConnection)
	server := httptest.NewServer(r)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func wsURL(server *httptest.Server, uploadID string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/uploads/" + uploadID
}

func TestProgressHandler_InvalidUploadID(t *testing.T) {
	_, server := progressServer(t, []string{"*"})

	resp, err := http.Get(server.URL + "/ws/uploads/not-a-uuid")
	testutil.AssertNoError(t, err)
	defer resp.Body.Close()

	testutil.AssertEqual(t, resp.StatusCode, http.StatusBadRequest)
}

func TestProgressHandler_StreamsProgress(t *testing.T) {
	hub, server := progressServer(t, []string{"*"})
	uploadID := uuid.NewString()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, uploadID), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The hub replays the latest event, so publishing after the dial
	// reaches the subscriber whichever registers first.
	hub.Publish(domain.UploadProgress{UploadID: uploadID, Loaded: 50, Total: 100, Percent: 50})

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var p domain.UploadProgress
	if err := conn.ReadJSON(&p); err != nil {
		t.Fatalf("read: %v", err)
	}
	testutil.AssertEqual(t, p.Percent, 50.0)

	hub.Publish(domain.UploadProgress{UploadID: uploadID, Loaded: 100, Total: 100, Percent: 100, Done: true})
	if err := conn.ReadJSON(&p); err != nil {
		t.Fatalf("read: %v", err)
	}
	testutil.AssertTrue(t, p.Done, "expected final event")

	// The stream closes after the final event.
	_, _, err = conn.ReadMessage()
	testutil.AssertTrue(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected normal closure")
}

func TestProgressHandler_RejectsForeignOrigin(t *testing.T) {
	_, server := progressServer(t, []string{"https://aula.example"})

	header := http.Header{"Origin": {"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, uuid.NewString()), header)

	testutil.AssertError(t, err)
	if resp != nil {
		testutil.AssertEqual(t, resp.StatusCode, http.StatusForbidden)
	}
}

func TestCheckOrigin(t *testing.T) {
	check := checkOrigin([]string{"https://aula.example"})

	req := httptest.NewRequest(http.MethodGet, "/ws/uploads/x", nil)
	testutil.AssertTrue(t, check(req), "requests without Origin are allowed")

	req.Header.Set("Origin", "https://aula.example")
	testutil.AssertTrue(t, check(req), "listed origin is allowed")

	req.Header.Set("Origin", "https://evil.example")
	testutil.AssertFalse(t, check(req), "unlisted origin is rejected")
}
