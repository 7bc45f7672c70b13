//go:build integration
// +build integration

package handler_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"aula-lms/internal/api"
	"aula-lms/internal/domain"
	"aula-lms/internal/handler"
	"aula-lms/internal/messaging"
	"aula-lms/internal/middleware"
	"aula-lms/internal/querycache"
	"aula-lms/internal/testutil"
	"aula-lms/internal/upload"
	"aula-lms/internal/websocket"
)

const testSecret = "test-secret"

func startRabbitMQ(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.12-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Server startup complete"),
				wait.ForListeningPort("5672/tcp"),
			).WithDeadline(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start RabbitMQ container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)

	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

// fakeStorage accepts PUTs the way the CDN storage API does
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *fakeStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut || r.Header.Get("AccessKey") != "cdn-key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	data, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.objects[r.URL.Path] = data
	s.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
}

func TestUploadPipeline(t *testing.T) {
	url := startRabbitMQ(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rmq, err := messaging.NewRabbitMQWithRetry(ctx, url)
	require.NoError(t, err)
	defer rmq.Close()

	// A watcher with a cached lesson list
	opts := querycache.DefaultOptions()
	opts.JanitorInterval = 0
	cache := querycache.New(opts)
	defer cache.Close()
	lessonsKey := querycache.NewKey("lessons", "list", "m-1")
	cache.SetData(lessonsKey, []string{"intro"})

	events := make(chan messaging.Event, 4)
	invalidator := messaging.NewCacheInvalidator(cache, []string{"lessons"})
	consumer := messaging.NewEventConsumer(rmq, messaging.EventHandlerFunc(func(ctx context.Context, ev messaging.Event) {
		invalidator.HandleEvent(ctx, ev)
		events <- ev
	}))
	require.NoError(t, consumer.Start(ctx))

	storage := &fakeStorage{objects: make(map[string][]byte)}
	storageServer := httptest.NewServer(storage)
	defer storageServer.Close()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	cdn := upload.NewCDN(storageServer.URL+"/zone", "https://media.test", "cdn-key", nil)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth([]byte(testSecret)))
		r.Post("/api/upload", handler.NewUploadHandler(cdn, hub, rmq).Upload)
		r.Get("/ws/uploads/{upload_id}", handler.NewProgressHandler(hub, []string{"*"}).HandleConnection)
	})
	proxy := httptest.NewServer(r)
	defer proxy.Close()

	token := testutil.NewTestToken("user-1", time.Now().Add(time.Hour))
	uploadID := uuid.NewString()

	t.Run("progress_requires_token", func(t *testing.T) {
		_, resp, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(proxy.URL, "http")+"/ws/uploads/"+uploadID, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	wsConn, _, err := gorillaws.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(proxy.URL, "http")+"/ws/uploads/"+uploadID+"?token="+token, nil)
	require.NoError(t, err)
	defer wsConn.Close()

	content := bytes.Repeat([]byte("%PDF-1.7 lecture notes\n"), 4096)
	uploader := upload.NewUploader(proxy.URL, api.TokenFunc(func() string { return token }), nil)

	result, err := uploader.Upload(ctx, upload.File{
		ID:       uploadID,
		Kind:     domain.FileKindPDF,
		Name:     "notes.pdf",
		MIMEType: "application/pdf",
		Size:     int64(len(content)),
		Body:     bytes.NewReader(content),
	}, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.URL, "https://media.test/pdfs/"), result.URL)
	assert.Equal(t, int64(len(content)), result.FileSize)

	storage.mu.Lock()
	require.Len(t, storage.objects, 1)
	for _, data := range storage.objects {
		assert.Equal(t, content, data)
	}
	storage.mu.Unlock()

	// Progress stream ends with the final event
	wsConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var last domain.UploadProgress
	for !last.Done {
		require.NoError(t, wsConn.ReadJSON(&last))
	}
	assert.Equal(t, 100.0, last.Percent)

	// The completion event reaches the watcher and invalidates its lessons
	select {
	case ev := <-events:
		assert.Equal(t, messaging.EventUploadCompleted, ev.Type)
		assert.Equal(t, uploadID, ev.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("upload.completed event not received")
	}

	fetched := false
	_, err = cache.Fetch(ctx, lessonsKey, func(ctx context.Context) (any, error) {
		fetched = true
		return []string{"intro", "notes"}, nil
	})
	require.NoError(t, err)
	assert.True(t, fetched, "invalidated lessons should be refetched")
}
