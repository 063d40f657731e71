package internal

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

func isValidUrl(uri string) bool {
	u, err := url.Parse(uri)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// fileSuffix keeps compound extensions such as ".geojson.bz2" so the
// downloaded temp file can still be dispatched on its name.
func fileSuffix(uri string) string {
	if u, err := url.Parse(uri); err == nil {
		uri = u.Path
	}
	base := path.Base(uri)
	if i := strings.Index(base, "."); i > 0 {
		return base[i:]
	}
	return ""
}

// TransientDownload hands local paths straight to handler. URLs are fetched
// to a temp file that is removed once handler returns.
func TransientDownload[T any](uri string, handler func(tmpfile string) (T, error)) (T, error) {
	if !isValidUrl(uri) {
		return handler(uri)
	}

	var zero T
	log.Printf("Retrieving: %s", uri)
	req, err := http.NewRequest(http.MethodGet, uri, nil)
	if err != nil {
		return zero, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("failed to fetch from %s: %w", uri, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close body: %v", err)
		}
	}()

	if resp.StatusCode > 299 {
		return zero, fmt.Errorf("error response from %s: %s", uri, resp.Status)
	}

	tmp, err := os.CreateTemp("", "download-*"+fileSuffix(uri))
	if err != nil {
		return zero, err
	}
	tmpfile := tmp.Name()
	defer func() {
		if err := os.Remove(tmpfile); err != nil {
			log.Printf("failed to remove file %s: %v", tmpfile, err)
		}
	}()

	filesize := "unknown size"
	if resp.ContentLength >= 0 {
		filesize = humanize.Bytes(uint64(resp.ContentLength))
	}
	log.Printf("Downloading content (%s) to %s", filesize, tmpfile)

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return zero, fmt.Errorf("failed to copy response body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return zero, fmt.Errorf("failed to close temporary file: %w", err)
	}
	return handler(tmpfile)
}
