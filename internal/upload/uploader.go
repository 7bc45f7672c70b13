package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"aula-lms/internal/api"
	"aula-lms/internal/domain"
	"aula-lms/internal/observability"
)

// UploadIDHeader carries the client-chosen upload ID, so progress can be
// followed on /ws/uploads/{upload_id} while the request is still running.
const UploadIDHeader = "X-Upload-ID"

// File describes one file to upload. ID is the upload ID; one is
// generated when empty.
type File struct {
	ID       string
	Kind     domain.FileKind
	Name     string
	MIMEType string
	Size     int64
	Body     io.Reader
}

// Uploader streams files to the upload proxy.
type Uploader struct {
	endpoint   string
	httpClient *http.Client
	tokens     api.TokenSource
}

// NewUploader targets proxyURL + "/api/upload". Uploads may run for a
// long time, so the default client has no timeout; use the context.
func NewUploader(proxyURL string, tokens api.TokenSource, hc *http.Client) *Uploader {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Uploader{
		endpoint:   strings.TrimRight(proxyURL, "/") + "/api/upload",
		httpClient: hc,
		tokens:     tokens,
	}
}

// Upload validates f, then streams it as multipart form data. progress,
// when set, receives byte-level events as the body is sent; the last one
// has Done set.
func (u *Uploader) Upload(ctx context.Context, f File, progress ProgressFunc) (*domain.UploadResult, error) {
	if err := Validate(f.Kind, f.MIMEType, f.Size); err != nil {
		return nil, err
	}

	uploadID := f.ID
	if uploadID == "" {
		uploadID = uuid.NewString()
	}
	ctx = observability.WithUploadID(ctx, uploadID)
	logger := observability.FromContext(ctx)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	body := NewProgressReader(f.Body, uploadID, f.Size, progress)

	go func() {
		pw.CloseWithError(writeForm(mw, f, body))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set(UploadIDHeader, uploadID)
	if u.tokens != nil {
		if token := u.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	logger.Info("upload started", "file", f.Name, "kind", f.Kind, "size", f.Size)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("upload %s: %w", f.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upload %s: %w", f.Name, api.DecodeError(resp, "/api/upload"))
	}

	var result domain.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("upload %s: %w: %v", f.Name, api.ErrInvalidResponse, err)
	}

	if progress != nil {
		progress(domain.UploadProgress{
			UploadID: uploadID,
			Loaded:   f.Size,
			Total:    f.Size,
			Percent:  100,
			Done:     true,
		})
	}
	logger.Info("upload finished", "url", result.URL)
	return &result, nil
}

// writeForm writes the metadata fields ahead of the file so the proxy can
// validate before reading the body.
func writeForm(mw *multipart.Writer, f File, body io.Reader) error {
	if err := mw.WriteField("kind", string(f.Kind)); err != nil {
		return err
	}
	if err := mw.WriteField("size", strconv.FormatInt(f.Size, 10)); err != nil {
		return err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(f.Name)))
	h.Set("Content-Type", f.MIMEType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
