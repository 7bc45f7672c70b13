// Package upload validates course media and moves it between the terminal,
// the upload proxy and CDN storage.
package upload

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"aula-lms/internal/domain"
)

const (
	MiB int64 = 1 << 20
	GiB int64 = 1 << 30

	MaxVideoSize = 2 * GiB
	MaxPDFSize   = 100 * MiB
)

// Rule is the accepted MIME set and size ceiling for one kind of file.
type Rule struct {
	MIMETypes []string
	MaxSize   int64
}

var rules = map[domain.FileKind]Rule{
	domain.FileKindVideo: {
		MIMETypes: []string{"video/mp4", "video/webm", "video/ogg", "video/quicktime"},
		MaxSize:   MaxVideoSize,
	},
	domain.FileKindPDF: {
		MIMETypes: []string{"application/pdf"},
		MaxSize:   MaxPDFSize,
	},
}

// RuleFor returns the rule for kind.
func RuleFor(kind domain.FileKind) (Rule, bool) {
	r, ok := rules[kind]
	return r, ok
}

// Accepts reports whether mimeType is in the rule's set. Parameters such
// as "; codecs=..." are ignored.
func (r Rule) Accepts(mimeType string) bool {
	mimeType = baseMIME(mimeType)
	for _, m := range r.MIMETypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

// Validate checks a file before any byte is sent. It never touches the
// file itself.
func Validate(kind domain.FileKind, mimeType string, size int64) error {
	rule, ok := rules[kind]
	if !ok {
		return fmt.Errorf("%w: unknown upload kind %q", domain.ErrUnsupportedFileType, kind)
	}
	if !rule.Accepts(mimeType) {
		return fmt.Errorf("%w: %s (allowed: %s)", domain.ErrUnsupportedFileType, mimeType, strings.Join(rule.MIMETypes, ", "))
	}
	if size <= 0 {
		return domain.ErrEmptyFile
	}
	if size > rule.MaxSize {
		return fmt.Errorf("%w: %s exceeds the %s limit", domain.ErrFileTooLarge, FormatSize(size), FormatSize(rule.MaxSize))
	}
	return nil
}

// KindFor infers the kind from a MIME type.
func KindFor(mimeType string) (domain.FileKind, bool) {
	for kind, rule := range rules {
		if rule.Accepts(mimeType) {
			return kind, true
		}
	}
	return "", false
}

// ObjectName builds a collision-free storage path such as
// "videos/0b6f...e1.mp4", keeping the original extension.
func ObjectName(kind domain.FileKind, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return string(kind) + "s/" + uuid.NewString() + ext
}

// FormatSize renders a byte count for messages.
func FormatSize(n int64) string {
	switch {
	case n >= GiB:
		return fmt.Sprintf("%.1f GiB", float64(n)/float64(GiB))
	case n >= MiB:
		return fmt.Sprintf("%.1f MiB", float64(n)/float64(MiB))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/float64(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func baseMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
