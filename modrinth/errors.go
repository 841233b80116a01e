// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package modrinth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingChecksum is returned when the API did not provide
	// a SHA-512 hash for a file.
	ErrMissingChecksum = errors.New("modrinth: missing SHA-512 file hash in the response")

	// ErrMissingContentLength is returned when a download response
	// does not declare its size.
	ErrMissingContentLength = errors.New("modrinth: missing Content-Length header")
)

// BaseURLError is returned by [New] for an unusable base URL.
type BaseURLError struct {
	URL   string
	Cause error
}

// Error implements the [error] interface.
func (e BaseURLError) Error() string {
	return fmt.Sprintf("invalid base url %q: %s", e.URL, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BaseURLError) Unwrap() error {
	return e.Cause
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// Error implements the [error] interface.
func (e StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status code %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status code %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// DecodeError is returned when a response body is not the expected JSON.
type DecodeError struct {
	URL   string
	Cause error
}

// Error implements the [error] interface.
func (e DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %s", e.URL, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e DecodeError) Unwrap() error {
	return e.Cause
}

// ContentTypeError is returned when a download is neither a JAR nor a ZIP archive.
type ContentTypeError struct {
	ContentType string
}

// Error implements the [error] interface.
func (e ContentTypeError) Error() string {
	return fmt.Sprintf("the content type must be either a JAR archive or a ZIP file, got %q", e.ContentType)
}

// InvalidFilenameError is returned when a file name would escape the destination directory.
type InvalidFilenameError struct {
	Filename string
}

// Error implements the [error] interface.
func (e InvalidFilenameError) Error() string {
	return fmt.Sprintf("invalid file name: %q", e.Filename)
}

// ChecksumMismatchError is returned when the file on disk does not
// match the SHA-512 hash published by Modrinth.
type ChecksumMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

// Error implements the [error] interface.
func (e ChecksumMismatchError) Error() string {
	return fmt.Sprintf("%s has mismatching hash sha512:%s", e.Path, e.Actual)
}

// DownloadError identifies the artifact which failed to download.
type DownloadError struct {
	ProjectID string
	VersionID string
	Filename  string
	Cause     error
}

// Error implements the [error] interface.
func (e DownloadError) Error() string {
	return fmt.Sprintf("%s/%s/%s: %s", e.ProjectID, e.VersionID, e.Filename, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e DownloadError) Unwrap() error {
	return e.Cause
}
