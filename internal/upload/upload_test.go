package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aula-lms/internal/api"
	"aula-lms/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.FileKind
		mime    string
		size    int64
		wantErr error
	}{
		{"mp4_under_limit", domain.FileKindVideo, "video/mp4", 1900 * MiB, nil},
		{"mp4_1_9_gib", domain.FileKindVideo, "video/mp4", GiB * 19 / 10, nil},
		{"webm", domain.FileKindVideo, "video/webm", 10 * MiB, nil},
		{"quicktime_with_params", domain.FileKindVideo, "video/quicktime; codecs=avc1", MiB, nil},
		{"mp4_at_limit", domain.FileKindVideo, "video/mp4", MaxVideoSize, nil},
		{"mp4_over_limit", domain.FileKindVideo, "video/mp4", MaxVideoSize + 1, domain.ErrFileTooLarge},
		{"avi_rejected", domain.FileKindVideo, "video/avi", MiB, domain.ErrUnsupportedFileType},
		{"pdf_as_video", domain.FileKindVideo, "application/pdf", MiB, domain.ErrUnsupportedFileType},
		{"pdf_ok", domain.FileKindPDF, "application/pdf", 99 * MiB, nil},
		{"pdf_101_mib", domain.FileKindPDF, "application/pdf", 101 * MiB, domain.ErrFileTooLarge},
		{"empty_file", domain.FileKindPDF, "application/pdf", 0, domain.ErrEmptyFile},
		{"unknown_kind", domain.FileKind("image"), "image/png", MiB, domain.ErrUnsupportedFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.kind, tt.mime, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestKindFor(t *testing.T) {
	kind, ok := KindFor("video/ogg")
	assert.True(t, ok)
	assert.Equal(t, domain.FileKindVideo, kind)

	kind, ok = KindFor("Application/PDF")
	assert.True(t, ok)
	assert.Equal(t, domain.FileKindPDF, kind)

	_, ok = KindFor("video/avi")
	assert.False(t, ok)
}

func TestObjectName(t *testing.T) {
	a := ObjectName(domain.FileKindVideo, "Intro Lesson.MP4")
	b := ObjectName(domain.FileKindVideo, "Intro Lesson.MP4")

	assert.True(t, strings.HasPrefix(a, "videos/"))
	assert.True(t, strings.HasSuffix(a, ".mp4"))
	assert.NotEqual(t, a, b)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KiB", FormatSize(1536))
	assert.Equal(t, "101.0 MiB", FormatSize(101*MiB))
	assert.Equal(t, "2.0 GiB", FormatSize(MaxVideoSize))
}

func TestProgressReader(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1000)
	var events []domain.UploadProgress

	r := NewProgressReader(bytes.NewReader(data), "up-1", int64(len(data)), func(p domain.UploadProgress) {
		events = append(events, p)
	})

	buf := make([]byte, 10)
	for {
		if _, err := r.Read(buf); err == io.EOF {
			break
		}
	}

	require.NotEmpty(t, events)
	assert.Equal(t, int64(1000), r.Loaded())
	last := events[len(events)-1]
	assert.Equal(t, 100.0, last.Percent)
	assert.Equal(t, "up-1", last.UploadID)
	assert.False(t, last.Done)

	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Loaded, events[i-1].Loaded)
	}
	// One event per whole percent at most.
	assert.LessOrEqual(t, len(events), 101)
}

func TestUploader_Upload(t *testing.T) {
	content := bytes.Repeat([]byte("%PDF"), 256)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "5f0c1a52-93d4-4a8e-bb8e-0d5a4c6f7e21", r.Header.Get(UploadIDHeader))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "pdf", r.FormValue("kind"))
		assert.Equal(t, "1024", r.FormValue("size"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		got, _ := io.ReadAll(file)
		assert.Equal(t, content, got)
		assert.Equal(t, "syllabus.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))

		json.NewEncoder(w).Encode(domain.UploadResult{
			URL:      "https://cdn.test/pdfs/abc.pdf",
			FileName: header.Filename,
			FileSize: int64(len(got)),
			FileType: "application/pdf",
		})
	}))
	defer server.Close()

	var mu sync.Mutex
	var events []domain.UploadProgress
	u := NewUploader(server.URL, api.TokenFunc(func() string { return "tok" }), nil)

	result, err := u.Upload(context.Background(), File{
		ID:       "5f0c1a52-93d4-4a8e-bb8e-0d5a4c6f7e21",
		Kind:     domain.FileKindPDF,
		Name:     "syllabus.pdf",
		MIMEType: "application/pdf",
		Size:     int64(len(content)),
		Body:     bytes.NewReader(content),
	}, func(p domain.UploadProgress) {
		mu.Lock()
		events = append(events, p)
		mu.Unlock()
	})

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/pdfs/abc.pdf", result.URL)
	assert.Equal(t, int64(1024), result.FileSize)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	assert.True(t, events[len(events)-1].Done)
	assert.Equal(t, "5f0c1a52-93d4-4a8e-bb8e-0d5a4c6f7e21", events[0].UploadID)
}

func TestUploader_RejectsBeforeSending(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	u := NewUploader(server.URL, nil, nil)
	_, err := u.Upload(context.Background(), File{
		Kind:     domain.FileKindVideo,
		Name:     "clip.avi",
		MIMEType: "video/avi",
		Size:     MiB,
		Body:     strings.NewReader("ignored"),
	}, nil)

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	assert.False(t, called)
}

func TestUploader_ProxyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write([]byte(`{"statusCode":413,"message":"file too large"}`))
	}))
	defer server.Close()

	u := NewUploader(server.URL, nil, nil)
	_, err := u.Upload(context.Background(), File{
		Kind:     domain.FileKindPDF,
		Name:     "a.pdf",
		MIMEType: "application/pdf",
		Size:     4,
		Body:     strings.NewReader("%PDF"),
	}, nil)

	require.Error(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, domain.StatusCode(err))
	assert.Equal(t, "file too large", domain.ErrorMessage(err, ""))
}

func TestCDN_Put(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/zone/videos/a.mp4", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("AccessKey"))
		assert.Equal(t, "video/mp4", r.Header.Get("Content-Type"))
		assert.Equal(t, int64(5), r.ContentLength)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	cdn := NewCDN(server.URL+"/zone/", "https://cdn.test/", "secret", nil)
	url, err := cdn.Put(context.Background(), "videos/a.mp4", strings.NewReader("hello"), 5, "video/mp4")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/videos/a.mp4", url)
	assert.Equal(t, []byte("hello"), gotBody)
}

func TestCDN_PutRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"Message":"Unauthorized"}`))
	}))
	defer server.Close()

	cdn := NewCDN(server.URL, "https://cdn.test", "wrong", nil)
	_, err := cdn.Put(context.Background(), "pdfs/a.pdf", strings.NewReader("x"), 1, "application/pdf")

	assert.ErrorIs(t, err, ErrCDNRejected)
}
