package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var ErrCDNRejected = errors.New("cdn storage rejected the upload")

// CDN writes objects to a storage zone over HTTP PUT authenticated with an
// AccessKey header, and maps them to public URLs.
type CDN struct {
	storageURL string
	publicURL  string
	accessKey  string
	httpClient *http.Client
}

func NewCDN(storageURL, publicURL, accessKey string, hc *http.Client) *CDN {
	if hc == nil {
		hc = &http.Client{}
	}
	return &CDN{
		storageURL: strings.TrimRight(storageURL, "/"),
		publicURL:  strings.TrimRight(publicURL, "/"),
		accessKey:  accessKey,
		httpClient: hc,
	}
}

// Put streams body to object and returns its public URL. size is sent as
// the Content-Length when positive.
func (c *CDN) Put(ctx context.Context, object string, body io.Reader, size int64, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.storageURL+"/"+object, body)
	if err != nil {
		return "", fmt.Errorf("cdn put %s: %w", object, err)
	}
	if size > 0 {
		req.ContentLength = size
	}
	req.Header.Set("AccessKey", c.accessKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cdn put %s: %w", object, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: %s: %s %s", ErrCDNRejected, object, resp.Status, strings.TrimSpace(string(detail)))
	}
	return c.PublicURL(object), nil
}

func (c *CDN) PublicURL(object string) string {
	return c.publicURL + "/" + object
}
