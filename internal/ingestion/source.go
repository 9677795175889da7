package ingestion

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ulikunitz/xz"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

var errNoMatch = errors.New("no file matches pattern")

// open resolves source to a readable stream. Sources are http(s) URLs, glob
// patterns or plain paths.
func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err := l.fetch(ctx, source)
		return body, source, err
	}

	path := source
	if strings.ContainsAny(source, "*?[{") {
		resolved, err := resolveGlob(source)
		if err != nil {
			return nil, source, err
		}
		path = resolved
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, path, fmt.Errorf("error opening file: %w", err)
	}
	return f, path, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

// resolveGlob picks the lexicographically last match, which for timestamped
// exports is the newest one.
func resolveGlob(pattern string) (string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return "", fmt.Errorf("error matching %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", errNoMatch, pattern)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// decompress sniffs the stream for gzip or xz magic bytes and wraps it in
// the matching reader. Anything else is returned as-is.
func decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(len(xzMagic))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	switch {
	case bytes.HasPrefix(header, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, nil
	case bytes.HasPrefix(header, xzMagic):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xr, nil
	}
	return br, nil
}
