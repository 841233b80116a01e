// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package modrinth

import (
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// PlatformRequirement describes whether a project must be installed
// on the client or the server.
type PlatformRequirement string

const (
	Required    PlatformRequirement = "required"
	Optional    PlatformRequirement = "optional"
	Unsupported PlatformRequirement = "unsupported"
	Unknown     PlatformRequirement = "unknown"
)

// UnknownValueError is returned when the API responds with an enum
// value this package does not know about.
type UnknownValueError struct {
	Kind  string
	Value string
}

// Error implements the [error] interface.
func (e UnknownValueError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Kind, e.Value)
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (p *PlatformRequirement) UnmarshalText(b []byte) error {
	v := PlatformRequirement(b)
	switch v {
	case Required, Optional, Unsupported, Unknown:
		*p = v
		return nil
	}
	return UnknownValueError{Kind: "platform requirement", Value: string(b)}
}

// DependencyType describes how a [Version] relates to one of its dependencies.
type DependencyType string

const (
	RequiredDependency     DependencyType = "required"
	OptionalDependency     DependencyType = "optional"
	IncompatibleDependency DependencyType = "incompatible"
	EmbeddedDependency     DependencyType = "embedded"
)

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (d *DependencyType) UnmarshalText(b []byte) error {
	v := DependencyType(b)
	switch v {
	case RequiredDependency, OptionalDependency, IncompatibleDependency, EmbeddedDependency:
		*d = v
		return nil
	}
	return UnknownValueError{Kind: "dependency type", Value: string(b)}
}

// Project is the subset of a Modrinth project used for resolution.
type Project struct {
	ID         string              `json:"id"`
	Slug       string              `json:"slug"`
	ClientSide PlatformRequirement `json:"client_side"`
	ServerSide PlatformRequirement `json:"server_side"`
}

// Version is a single release of a [Project].
type Version struct {
	ID            string       `json:"id"`
	ProjectID     string       `json:"project_id"`
	VersionNumber string       `json:"version_number"`
	Loaders       []string     `json:"loaders"`
	DatePublished time.Time    `json:"date_published"`
	Files         []File       `json:"files"`
	Dependencies  []Dependency `json:"dependencies"`
}

// SupportsLoader reports whether the version was published for loader.
func (v Version) SupportsLoader(loader string) bool {
	return slices.Contains(v.Loaders, loader)
}

// PrimaryFiles returns the files flagged as primary in publication order.
func (v Version) PrimaryFiles() []File {
	var files []File
	for _, f := range v.Files {
		if f.Primary {
			files = append(files, f)
		}
	}
	return files
}

// Hashes of a [File]. SHA512 is empty when the API omitted it.
type Hashes struct {
	SHA512 string `json:"sha512"`
}

// File is a downloadable artifact of a [Version].
type File struct {
	Hashes   Hashes `json:"hashes"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Primary  bool   `json:"primary"`
}

// LogValue implements the [slog.LogValuer] interface.
func (f File) LogValue() slog.Value {
	return slog.StringValue(f.Filename)
}

// Dependency of a [Version]. Either ID may be empty when the
// API responds with null.
type Dependency struct {
	VersionID      string         `json:"version_id"`
	ProjectID      string         `json:"project_id"`
	DependencyType DependencyType `json:"dependency_type"`
}

