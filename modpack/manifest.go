// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package modpack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/z5labs/minecraft/config"
)

// AnyVersion is the manifest value matching every version.
const AnyVersion = "*"

// Requirement constrains which version of a project is acceptable.
// An empty Version matches any version.
type Requirement struct {
	Version string
}

// Matches reports whether a version with the given id or version number
// satisfies the requirement.
func (r Requirement) Matches(id, number string) bool {
	return r.Version == "" || r.Version == id || r.Version == number
}

// Manifest lists the projects to install per [Loader], keyed by project id or slug.
type Manifest struct {
	Datapack map[string]Requirement
	Fabric   map[string]Requirement
}

// Projects returns the projects listed for loader.
func (m Manifest) Projects(loader Loader) map[string]Requirement {
	switch loader {
	case Datapack:
		return m.Datapack
	case Fabric:
		return m.Fabric
	default:
		return nil
	}
}

// IsEmpty reports whether the manifest lists no projects at all.
func (m Manifest) IsEmpty() bool {
	return len(m.Datapack) == 0 && len(m.Fabric) == 0
}

// RequirementError is returned for a manifest entry which is
// neither a version string nor a table with a version key.
type RequirementError struct {
	Loader  Loader
	Project string
	Value   any
}

// Error implements the [error] interface.
func (e RequirementError) Error() string {
	return fmt.Sprintf("%s.%s: expected a version string or a table with a version key, got %v", e.Loader, e.Project, e.Value)
}

// ManifestError is returned when a manifest cannot be loaded.
type ManifestError struct {
	Path  string
	Cause error
}

// Error implements the [error] interface.
func (e ManifestError) Error() string {
	return fmt.Sprintf("%s: failed to load manifest: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ManifestError) Unwrap() error {
	return e.Cause
}

type rawManifest struct {
	Datapack map[string]any `toml:"datapack"`
	Fabric   map[string]any `toml:"fabric"`
}

// LoadManifest reads the TOML manifest at path.
func LoadManifest(ctx context.Context, path string) (Manifest, error) {
	raw, err := config.Read(ctx, config.Toml[rawManifest](config.ReadFile(path)))
	if errors.Is(err, config.ErrValueNotSet) {
		return Manifest{}, ManifestError{Path: path, Cause: fs.ErrNotExist}
	}
	if err != nil {
		return Manifest{}, ManifestError{Path: path, Cause: err}
	}

	var m Manifest
	m.Datapack, err = requirements(Datapack, raw.Datapack)
	if err != nil {
		return Manifest{}, ManifestError{Path: path, Cause: err}
	}
	m.Fabric, err = requirements(Fabric, raw.Fabric)
	if err != nil {
		return Manifest{}, ManifestError{Path: path, Cause: err}
	}
	return m, nil
}

func requirements(loader Loader, raw map[string]any) (map[string]Requirement, error) {
	reqs := make(map[string]Requirement, len(raw))
	for project, v := range raw {
		req, ok := parseRequirement(v)
		if !ok {
			return nil, RequirementError{Loader: loader, Project: project, Value: v}
		}
		reqs[project] = req
	}
	return reqs, nil
}

func parseRequirement(v any) (Requirement, bool) {
	switch v := v.(type) {
	case string:
		if v == AnyVersion {
			return Requirement{}, true
		}
		return Requirement{Version: v}, true
	case map[string]any:
		version, ok := v["version"].(string)
		if !ok {
			return Requirement{}, false
		}
		return Requirement{Version: version}, true
	default:
		return Requirement{}, false
	}
}
