// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package modrinth

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/z5labs/minecraft/internal/try"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Download stores file f of version v in dir and returns its path.
//
// An existing file is not fetched again. Either way the SHA-512 hash
// of the file on disk must match the one published by Modrinth.
func (c *Client) Download(ctx context.Context, v Version, f File, dir string) (path string, err error) {
	ctx, span := c.tracer.Start(ctx, "Client.Download", trace.WithAttributes(
		attribute.String("modrinth.project_id", v.ProjectID),
		attribute.String("modrinth.version_id", v.ID),
		attribute.String("modrinth.filename", f.Filename),
	))
	defer endSpan(span, &err)

	path, err = c.download(ctx, f, dir)
	if err != nil {
		return "", DownloadError{
			ProjectID: v.ProjectID,
			VersionID: v.ID,
			Filename:  f.Filename,
			Cause:     err,
		}
	}
	return path, nil
}

func (c *Client) download(ctx context.Context, f File, dir string) (string, error) {
	if f.Hashes.SHA512 == "" {
		return "", ErrMissingChecksum
	}
	if f.Filename != filepath.Base(f.Filename) || !filepath.IsLocal(f.Filename) {
		return "", InvalidFilenameError{Filename: f.Filename}
	}

	path := filepath.Join(dir, f.Filename)
	_, err := os.Stat(path)
	switch {
	case err == nil:
		c.log.DebugContext(ctx, "the artifact already exists", slog.String("path", path))
	case errors.Is(err, fs.ErrNotExist):
		err = c.fetch(ctx, f, path)
		if err != nil {
			return "", err
		}
	default:
		return "", err
	}

	sum, err := sha512Sum(path)
	if err != nil {
		return "", err
	}
	if sum != f.Hashes.SHA512 {
		return "", ChecksumMismatchError{
			Path:     path,
			Expected: f.Hashes.SHA512,
			Actual:   sum,
		}
	}
	return path, nil
}

func (c *Client) fetch(ctx context.Context, f File, path string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer try.Close(&err, resp.Body)

	err = validateContentType(resp.Header.Get("Content-Type"))
	if err != nil {
		return err
	}

	cl := resp.Header.Get("Content-Length")
	if cl == "" {
		return ErrMissingContentLength
	}
	contentLength, err := strconv.ParseInt(cl, 10, 64)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	n, err := io.Copy(out, resp.Body)
	cerr := out.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Join(err, os.Remove(path))
	}

	if n != contentLength {
		c.log.WarnContext(
			ctx,
			"content length mismatch",
			slog.Int64("body_length", n),
			slog.Int64("content_length", contentLength),
		)
	}

	attrs := metric.WithAttributes(attribute.String("modrinth.content_type", resp.Header.Get("Content-Type")))
	c.downloads.Add(ctx, 1, attrs)
	c.downloadedBytes.Add(ctx, n, attrs)
	return nil
}

func validateContentType(ct string) error {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ContentTypeError{ContentType: ct}
	}
	switch mediaType {
	case "application/java-archive", "application/zip":
		return nil
	}
	return ContentTypeError{ContentType: ct}
}

func sha512Sum(path string) (_ string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer try.Close(&err, f)

	h := sha512.New()
	_, err = io.Copy(h, f)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
