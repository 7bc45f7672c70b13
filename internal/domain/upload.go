package domain

import "errors"

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrEmptyFile           = errors.New("empty file")
)

// FileKind selects the validation rules for an upload.
type FileKind string

const (
	FileKindVideo FileKind = "video"
	FileKindPDF   FileKind = "pdf"
)

// UploadResult is what the upload proxy returns once the CDN accepted a file.
type UploadResult struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// UploadProgress is a byte-level progress event.
type UploadProgress struct {
	UploadID string  `json:"upload_id,omitempty"`
	Loaded   int64   `json:"loaded"`
	Total    int64   `json:"total"`
	Percent  float64 `json:"percent"`
	Done     bool    `json:"done,omitempty"`
	Error    string  `json:"error,omitempty"`
}
