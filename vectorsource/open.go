package vectorsource

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
	"google.golang.org/api/iterator"
)

type Compression byte

const (
	CompressionInvalid Compression = iota
	CompressionNone
	CompressionGzip
	CompressionZip
	CompressionXZ
	CompressionBZip2
)

// Magic numbers, from https://stackoverflow.com/a/19127748/199475
var signatures = []struct {
	c   Compression
	sig []byte
}{
	{CompressionGzip, []byte{0x1f, 0x8b, 0x08}},
	{CompressionZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{CompressionXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{CompressionBZip2, []byte{0x42, 0x5a, 0x68}},
}

// DetectCompression matches the first bytes of a stream against known
// signatures. Unix compress (.Z) files are not recognized and read as plain
// text.
func DetectCompression(head []byte) Compression {
	for _, s := range signatures {
		if bytes.HasPrefix(head, s.sig) {
			return s.c
		}
	}
	return CompressionNone
}

// Open opens a local path or a gs://bucket/object URL and transparently
// decompresses it. client may be nil when no gs:// paths are used.
func Open(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	raw, err := openRaw(ctx, path, client)
	if err != nil {
		return nil, err
	}
	rc, err := decompress(raw)
	if err != nil {
		raw.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	return rc, nil
}

func openRaw(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, "gs://") {
		f, err := os.Open(path)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return f, nil
	}

	if client == nil {
		return nil, pfx.Err(fmt.Errorf("%s: no storage client configured", path))
	}
	bucket, object, err := splitGS(path)
	if err != nil {
		return nil, err
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	return r, nil
}

func splitGS(path string) (bucket, object string, err error) {
	parts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(parts) != 2 {
		return "", "", pfx.Err(fmt.Errorf("expected gs://bucket/path, got %q", path))
	}
	return parts[0], parts[1], nil
}

// decompress sniffs the stream through a buffer, so it works on streams that
// cannot seek.
func decompress(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	head, err := br.Peek(6)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}

	var r io.Reader
	switch DetectCompression(head) {
	case CompressionGzip:
		if r, err = gzip.NewReader(br); err != nil {
			return nil, err
		}
	case CompressionZip:
		// Only the first file of an archive is read.
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			return nil, err
		}
		r = zr
	case CompressionXZ:
		if r, err = xz.NewReader(br, 0); err != nil {
			return nil, err
		}
	case CompressionBZip2:
		r = bzip2.NewReader(br)
	default:
		r = br
	}
	return &readCloser{Reader: r, closer: rc}, nil
}

// readCloser reads through decompression and closes the underlying file or
// object.
type readCloser struct {
	io.Reader
	closer io.Closer
}

func (c *readCloser) Close() error {
	if rc, ok := c.Reader.(io.Closer); ok {
		rc.Close()
	}
	return c.closer.Close()
}

// Expand lists the files path refers to. A path ending in "/" is a local
// directory or a gs:// prefix and expands to every file under it, sorted by
// name. Anything else is returned as is.
func Expand(ctx context.Context, path string, client *storage.Client) ([]string, error) {
	if !strings.HasSuffix(path, "/") {
		return []string{path}, nil
	}

	if !strings.HasPrefix(path, "gs://") {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, pfx.Err(err)
		}
		var out []string
		for _, e := range entries {
			if !e.IsDir() {
				out = append(out, filepath.Join(path, e.Name()))
			}
		}
		return out, nil
	}

	if client == nil {
		return nil, pfx.Err(fmt.Errorf("%s: no storage client configured", path))
	}
	bucket, prefix, err := splitGS(path)
	if err != nil {
		return nil, err
	}
	var out []string
	it := client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, pfx.Err(err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		out = append(out, "gs://"+bucket+"/"+attrs.Name)
	}
	sort.Strings(out)
	return out, nil
}
