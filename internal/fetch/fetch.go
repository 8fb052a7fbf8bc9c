// Package fetch retrieves source files for staging by URL.
// Supported schemes are http(s), s3://bucket/key and, when enabled, local paths.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	httpclient "github.com/motorefacciones/import-service/internal/http"
)

var (
	// ErrUnsupportedScheme is returned for URLs the fetcher cannot serve
	ErrUnsupportedScheme = errors.New("unsupported source url scheme")
	// ErrTooLarge is returned when a source exceeds the configured size limit
	ErrTooLarge = httpclient.ErrTooLarge
)

// File is a downloaded source file
type File struct {
	URL      string
	Filename string
	Content  []byte
	Sha256   string
}

// ObjectGetter is the subset of the S3 client used for s3:// URLs
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher downloads source files
type Fetcher struct {
	http       *httpclient.Client
	s3         ObjectGetter
	allowLocal bool
	maxBytes   int64
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithS3 enables s3:// URLs
func WithS3(client ObjectGetter) Option {
	return func(f *Fetcher) { f.s3 = client }
}

// WithLocalFiles enables file:// URLs and bare filesystem paths
func WithLocalFiles() Option {
	return func(f *Fetcher) { f.allowLocal = true }
}

// WithMaxBytes caps the size of a download; zero means unlimited
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) { f.maxBytes = n }
}

// NewFetcher creates a fetcher over the retrying HTTP client
func NewFetcher(client *httpclient.Client, opts ...Option) *Fetcher {
	f := &Fetcher{http: client}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Download retrieves the file at rawURL
func (f *Fetcher) Download(ctx context.Context, rawURL string) (*File, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %q: %w", rawURL, err)
	}

	var content []byte
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		content, err = f.http.GetBytes(ctx, rawURL, f.maxBytes)
	case "s3":
		content, err = f.downloadS3(ctx, u)
	case "file", "":
		if !f.allowLocal {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
		}
		p := rawURL
		if u.Scheme == "file" {
			p = u.Path
		}
		content, err = f.readLocal(p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if err != nil {
		return nil, err
	}

	file := &File{
		URL:      rawURL,
		Filename: FilenameFromURL(rawURL),
		Content:  content,
		Sha256:   httpclient.ComputeSha256(content),
	}

	log.Debug().
		Str("url", rawURL).
		Str("filename", file.Filename).
		Int("bytes", len(content)).
		Msg("Downloaded source file")

	return file, nil
}

func (f *Fetcher) downloadS3(ctx context.Context, u *url.URL) ([]byte, error) {
	if f.s3 == nil {
		return nil, fmt.Errorf("%w: s3 is not configured", ErrUnsupportedScheme)
	}

	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid s3 url %q: expected s3://bucket/key", u.String())
	}

	out, err := f.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	return f.readAll(out.Body, u.String())
}

func (f *Fetcher) readLocal(p string) ([]byte, error) {
	file, err := os.Open(filepath.Clean(p))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer file.Close()

	return f.readAll(file, p)
}

func (f *Fetcher) readAll(r io.Reader, source string) ([]byte, error) {
	if f.maxBytes > 0 {
		r = io.LimitReader(r, f.maxBytes+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if f.maxBytes > 0 && int64(len(content)) > f.maxBytes {
		return nil, fmt.Errorf("%s: %w (%d bytes)", source, ErrTooLarge, f.maxBytes)
	}
	return content, nil
}

// FilenameFromURL returns the last path segment of a URL or path, unescaped
func FilenameFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	name := path.Base(filepath.ToSlash(p))
	if name == "." || name == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
