package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidshare/internal/model"
)

// SchemeFetcher opens the content behind a URI of one scheme.
type SchemeFetcher interface {
	Fetch(ctx context.Context, uri string) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to SchemeFetcher.
type FetcherFunc func(ctx context.Context, uri string) (io.ReadCloser, error)

func (f FetcherFunc) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) { return f(ctx, uri) }

// Localizer copies files that are not directly readable into a cache
// directory so they can be uploaded from disk.
type Localizer struct {
	dir      string
	maxBytes int64
	fetchers map[string]SchemeFetcher
}

// NewLocalizer registers http and https fetchers backed by httpClient.
func NewLocalizer(dir string, httpClient *http.Client) *Localizer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	l := &Localizer{
		dir:      dir,
		maxBytes: model.MaxVideoSizeBytes,
		fetchers: make(map[string]SchemeFetcher),
	}
	hf := httpFetcher{client: httpClient}
	l.Register("http", hf)
	l.Register("https", hf)
	return l
}

// Register adds or replaces the fetcher for scheme.
func (l *Localizer) Register(scheme string, f SchemeFetcher) {
	l.fetchers[strings.ToLower(scheme)] = f
}

// Localize returns file unchanged when its URI is a file:// URI or a plain
// path. Otherwise the content is copied into the cache directory and the
// returned file points at the copy; the caller removes the copy when done.
func (l *Localizer) Localize(ctx context.Context, file *model.MediaFile) (*model.MediaFile, error) {
	if file == nil {
		return nil, nil
	}
	scheme := uriScheme(file.URI)
	if scheme == "" || scheme == "file" {
		return file, nil
	}

	fetcher, ok := l.fetchers[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedScheme, scheme)
	}

	src, err := fetcher.Fetch(ctx, file.URI)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", file.Name, err)
	}
	defer src.Close()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media cache dir: %w", err)
	}
	dest := filepath.Join(l.dir, uuid.NewString()+filepath.Ext(file.Name))
	out, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("create local copy: %w", err)
	}

	// One byte past the limit is enough to know the file is too large.
	n, err := io.Copy(out, io.LimitReader(src, l.maxBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > l.maxBytes {
		err = fmt.Errorf("%w: %s exceeds %d bytes", model.ErrFileTooLarge, file.Name, l.maxBytes)
	}
	if err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("copy %s: %w", file.Name, err)
	}

	local := *file
	local.URI = "file://" + dest
	local.Size = n
	return &local, nil
}

// uriScheme returns the lower-cased scheme, or "" for plain paths.
func uriScheme(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || len(u.Scheme) < 2 {
		// one-letter schemes are drive letters
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// localPath turns a file:// URI or plain path into a filesystem path.
func localPath(uri string) string {
	if uriScheme(uri) == "file" {
		if u, err := url.Parse(uri); err == nil {
			return u.Path
		}
	}
	return uri
}

type httpFetcher struct {
	client *http.Client
}

func (f httpFetcher) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
