package timetable

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

var (
	driveFileRe = regexp.MustCompile(`^https?://drive\.google\.com/file/d/([^/?#]+)`)
	sheetsRe    = regexp.MustCompile(`^https?://docs\.google\.com/spreadsheets/d/([^/?#]+)`)
)

// fetchTimeout bounds one remote timetable download.
const fetchTimeout = 30 * time.Second

// ResolveSourceURL rewrites Google Drive file links and Google Sheets links
// into their direct-download/export (xlsx) form. Other URLs pass through
// unchanged.
func ResolveSourceURL(raw string) string {
	if m := driveFileRe.FindStringSubmatch(raw); m != nil {
		return fmt.Sprintf("https://drive.google.com/uc?export=download&id=%s", m[1])
	}
	if m := sheetsRe.FindStringSubmatch(raw); m != nil {
		return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=xlsx", m[1])
	}
	return raw
}

// FetchSource opens a timetable source for reading. HTTP(S) URLs are
// downloaded (after ResolveSourceURL rewriting); anything else is treated as
// a local file path.
func FetchSource(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open timetable file: %w", err)
		}
		return f, nil
	}

	url := ResolveSourceURL(source)

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("download timetable: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("download timetable: unexpected status %s", resp.Status)
	}

	return &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelReadCloser ties the request context's lifetime to the body.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
