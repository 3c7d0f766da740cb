package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elseano/mdcat/pkg/util"
)

const (
	// MaxResourceSize bounds how much of any image is read.
	MaxResourceSize = 100 * 1024 * 1024

	DefaultTimeout = 10 * time.Second
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrTimeout        = errors.New("resource fetch timed out")
	ErrNetwork        = errors.New("network failure")
	ErrRemoteDenied   = errors.New("remote resources are disabled")
	ErrTooLarge       = errors.New("resource too large")
	ErrUnsupportedRef = errors.New("unsupported resource reference")
)

// StatusError is returned for HTTP responses outside the 2xx range.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.Status)
}

// Fetcher turns an image reference into bytes.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// ResourceFetcher reads local files relative to BaseDir and fetches http(s) URLs with a
// single bounded attempt.
type ResourceFetcher struct {
	BaseDir   string
	LocalOnly bool
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
}

func NewResourceFetcher(baseDir string, localOnly bool, timeout time.Duration, userAgent string) *ResourceFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ResourceFetcher{
		BaseDir:   baseDir,
		LocalOnly: localOnly,
		Timeout:   timeout,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
	}
}

// Resolve turns a reference into an absolute URL. Relative references are resolved against
// the base directory as file URLs.
func (f *ResourceFetcher) Resolve(source string) (*url.URL, error) {
	return ResolveReference(f.BaseDir, source)
}

func ResolveReference(baseDir, source string) (*url.URL, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedRef, err)
	}

	if u.IsAbs() && len(u.Scheme) > 1 {
		return u, nil
	}

	path := source
	if u.Scheme == "" {
		path = u.Path
	}
	if !filepath.IsAbs(path) {
		base, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(base, path)
	}

	return &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}, nil
}

func (f *ResourceFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	u, err := f.Resolve(source)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "file":
		return f.readFile(filepath.FromSlash(u.Path))
	case "http", "https":
		if f.LocalOnly {
			return nil, fmt.Errorf("%w: %s", ErrRemoteDenied, u)
		}
		return f.get(ctx, u)
	}

	return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedRef, u.Scheme)
}

func (f *ResourceFetcher) readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	defer file.Close()

	return readLimited(file, path)
}

func (f *ResourceFetcher) get(ctx context.Context, u *url.URL) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedRef, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	util.Logger.Debug().Str("url", u.String()).Dur("timeout", f.Timeout).Msg("Fetching remote image")

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyNetworkError(u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, &StatusError{URL: u.String(), Status: resp.StatusCode})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: u.String(), Status: resp.StatusCode}
	}

	data, err := readLimited(resp.Body, u.String())
	if err != nil {
		return nil, classifyNetworkError(u, err)
	}
	return data, nil
}

func readLimited(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxResourceSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxResourceSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, name, MaxResourceSize)
	}
	return data, nil
}

func classifyNetworkError(u *url.URL, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s", ErrTimeout, u)
	}
	if errors.Is(err, ErrTooLarge) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrNetwork, u, err)
}

// IsRemote reports whether source refers to an http(s) resource.
func IsRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
