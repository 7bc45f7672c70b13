package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"aula-lms/internal/domain"
	"aula-lms/internal/middleware"
	"aula-lms/internal/observability"
	"aula-lms/internal/upload"
)

// ObjectStore receives uploaded files; *upload.CDN implements it
type ObjectStore interface {
	Put(ctx context.Context, object string, body io.Reader, size int64, contentType string) (string, error)
}

// ProgressSink receives progress events; *websocket.Hub implements it
type ProgressSink interface {
	Publish(p domain.UploadProgress)
}

// EventPublisher announces finished uploads; *messaging.RabbitMQ implements it
type EventPublisher interface {
	PublishUploadCompleted(ctx context.Context, uploadID string, result *domain.UploadResult) error
}

var errNoFile = errors.New("no file part in form")

// multipart framing and the metadata fields on top of the largest file
const formOverhead = upload.MiB

// UploadHandler streams multipart uploads straight to CDN storage without
// buffering them on disk.
type UploadHandler struct {
	store    ObjectStore
	progress ProgressSink
	events   EventPublisher
}

// NewUploadHandler creates an upload handler. events may be nil when the
// event feed is not configured.
func NewUploadHandler(store ObjectStore, progress ProgressSink, events EventPublisher) *UploadHandler {
	return &UploadHandler{
		store:    store,
		progress: progress,
		events:   events,
	}
}

// Upload handles POST /api/upload. The form carries optional "kind" and
// "size" fields followed by the "file" part.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	uploadID := r.Header.Get(upload.UploadIDHeader)
	if _, err := uuid.Parse(uploadID); err != nil {
		uploadID = uuid.NewString()
	}
	w.Header().Set(upload.UploadIDHeader, uploadID)

	ctx := observability.WithUploadID(r.Context(), uploadID)
	logger := observability.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxVideoSize+formOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Expected multipart form data")
		return
	}

	var (
		kind     domain.FileKind
		declared int64
	)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			h.fail(ctx, w, uploadID, "", errNoFile)
			return
		}
		if err != nil {
			h.fail(ctx, w, uploadID, "", err)
			return
		}

		switch part.FormName() {
		case "kind":
			kind = domain.FileKind(readField(part))
		case "size":
			declared, _ = strconv.ParseInt(readField(part), 10, 64)
		case "file":
			result, fileKind, err := h.stream(ctx, part, uploadID, kind, declared)
			if err != nil {
				h.fail(ctx, w, uploadID, fileKind, err)
				return
			}
			h.finish(ctx, w, uploadID, fileKind, result)
			logger.Info("upload stored", "url", result.URL, "size", result.FileSize)
			return
		}
		part.Close()
	}
}

// stream validates the file part and streams it to the object store
func (h *UploadHandler) stream(ctx context.Context, part *multipart.Part, uploadID string, kind domain.FileKind, declared int64) (*domain.UploadResult, domain.FileKind, error) {
	defer part.Close()

	mimeType := strings.ToLower(strings.TrimSpace(strings.SplitN(part.Header.Get("Content-Type"), ";", 2)[0]))
	if kind == "" {
		inferred, ok := upload.KindFor(mimeType)
		if !ok {
			return nil, kind, domain.ErrUnsupportedFileType
		}
		kind = inferred
	}

	// Without a declared size only the type can be checked up front; the
	// ceiling is then enforced while streaming.
	checkSize := declared
	if checkSize <= 0 {
		checkSize = 1
	}
	if err := upload.Validate(kind, mimeType, checkSize); err != nil {
		return nil, kind, err
	}
	rule, _ := upload.RuleFor(kind)

	fileName := path.Base(strings.ReplaceAll(part.FileName(), "\\", "/"))
	if fileName == "." || fileName == "/" {
		fileName = "upload"
	}

	start := time.Now()
	body := upload.NewProgressReader(&sizeCap{r: part, max: rule.MaxSize}, uploadID, declared, h.progress.Publish)

	url, err := h.store.Put(ctx, upload.ObjectName(kind, fileName), body, declared, mimeType)
	if err != nil {
		return nil, kind, err
	}

	observability.UploadDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	observability.UploadBytesTotal.WithLabelValues(string(kind)).Add(float64(body.Loaded()))

	return &domain.UploadResult{
		URL:      url,
		FileName: fileName,
		FileSize: body.Loaded(),
		FileType: mimeType,
	}, kind, nil
}

func (h *UploadHandler) finish(ctx context.Context, w http.ResponseWriter, uploadID string, kind domain.FileKind, result *domain.UploadResult) {
	observability.UploadsTotal.WithLabelValues(string(kind), "success").Inc()

	h.progress.Publish(domain.UploadProgress{
		UploadID: uploadID,
		Loaded:   result.FileSize,
		Total:    result.FileSize,
		Percent:  100,
		Done:     true,
	})

	if h.events != nil {
		if err := h.events.PublishUploadCompleted(context.WithoutCancel(ctx), uploadID, result); err != nil {
			observability.FromContext(ctx).Warn("failed to publish upload event", "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *UploadHandler) fail(ctx context.Context, w http.ResponseWriter, uploadID string, kind domain.FileKind, err error) {
	status, message := uploadErrorStatus(err)

	label := string(kind)
	if label == "" {
		label = "unknown"
	}
	observability.UploadsTotal.WithLabelValues(label, "error").Inc()

	h.progress.Publish(domain.UploadProgress{UploadID: uploadID, Error: message})

	logger := observability.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("upload failed", "error", err)
	} else {
		logger.Info("upload rejected", "status", status, "error", err)
	}

	middleware.WriteError(w, status, message)
}

func uploadErrorStatus(err error) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, domain.ErrFileTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, domain.ErrFileTooLarge.Error()
	case errors.Is(err, domain.ErrEmptyFile), errors.Is(err, errNoFile):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, upload.ErrCDNRejected):
		return http.StatusBadGateway, "Storage rejected the upload"
	case errors.Is(err, context.Canceled):
		return http.StatusBadRequest, "Upload cancelled"
	}
	return http.StatusBadGateway, "Upload failed"
}

func readField(part *multipart.Part) string {
	defer part.Close()
	data, _ := io.ReadAll(io.LimitReader(part, 64))
	return strings.TrimSpace(string(data))
}

// sizeCap fails the read that takes the stream past max bytes, which
// aborts the storage request.
type sizeCap struct {
	r   io.Reader
	n   int64
	max int64
}

func (s *sizeCap) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.n += int64(n)
	if s.n > s.max {
		return 0, domain.ErrFileTooLarge
	}
	return n, err
}
