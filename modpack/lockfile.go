// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package modpack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/z5labs/minecraft/config"
	"github.com/z5labs/minecraft/modrinth"

	"github.com/pelletier/go-toml/v2"
)

// Artifact is a single file resolved for a manifest.
type Artifact struct {
	ProjectID     string `toml:"project_id"`
	ProjectSlug   string `toml:"project_slug"`
	VersionID     string `toml:"version_id"`
	VersionNumber string `toml:"version_number"`
	Filename      string `toml:"filename"`
	Checksum      string `toml:"checksum"`
}

// NewArtifact describes file f of version v of project p. It returns
// [modrinth.ErrMissingChecksum] when f has no SHA-512 hash.
func NewArtifact(p modrinth.Project, v modrinth.Version, f modrinth.File) (Artifact, error) {
	if f.Hashes.SHA512 == "" {
		return Artifact{}, modrinth.ErrMissingChecksum
	}
	a := Artifact{
		ProjectID:     v.ProjectID,
		ProjectSlug:   p.Slug,
		VersionID:     v.ID,
		VersionNumber: v.VersionNumber,
		Filename:      f.Filename,
		Checksum:      f.Hashes.SHA512,
	}
	return a, nil
}

// String implements the [fmt.Stringer] interface.
func (a Artifact) String() string {
	return fmt.Sprintf("%s/%s/%s", a.ProjectID, a.VersionID, a.Filename)
}

// Lockfile records the artifacts resolved for a [Manifest].
type Lockfile struct {
	Datapack []Artifact `toml:"datapack"`
	Fabric   []Artifact `toml:"fabric"`
}

// Artifacts returns the artifacts locked for loader.
func (l Lockfile) Artifacts(loader Loader) []Artifact {
	switch loader {
	case Datapack:
		return l.Datapack
	case Fabric:
		return l.Fabric
	default:
		return nil
	}
}

func (l *Lockfile) set(loader Loader, artifacts []Artifact) {
	switch loader {
	case Datapack:
		l.Datapack = artifacts
	case Fabric:
		l.Fabric = artifacts
	}
}

type indexKey struct {
	projectID string
	versionID string
}

// Index is the set of (project id, version id) pairs locked for a [Loader].
type Index map[indexKey]struct{}

// Index returns the locked pairs for loader.
func (l Lockfile) Index(loader Loader) Index {
	artifacts := l.Artifacts(loader)
	idx := make(Index, len(artifacts))
	for _, a := range artifacts {
		idx[indexKey{projectID: a.ProjectID, versionID: a.VersionID}] = struct{}{}
	}
	return idx
}

// Contains reports whether the pair is locked. An empty index contains every pair.
func (idx Index) Contains(projectID, versionID string) bool {
	if len(idx) == 0 {
		return true
	}
	_, ok := idx[indexKey{projectID: projectID, versionID: versionID}]
	return ok
}

// UpToDate reports whether every project of m, and its pinned version,
// is represented in the lockfile. Projects match by id or slug and
// versions by id or version number.
func (l Lockfile) UpToDate(m Manifest) bool {
	for _, loader := range Loaders {
		if !l.upToDate(m, loader) {
			return false
		}
	}
	return true
}

func (l Lockfile) upToDate(m Manifest, loader Loader) bool {
	projects := make(map[string]struct{})
	versions := make(map[string]struct{})
	for _, a := range l.Artifacts(loader) {
		projects[a.ProjectID] = struct{}{}
		projects[a.ProjectSlug] = struct{}{}
		versions[a.VersionID] = struct{}{}
		versions[a.VersionNumber] = struct{}{}
	}

	for name, req := range m.Projects(loader) {
		if _, ok := projects[name]; !ok {
			return false
		}
		if req.Version == "" {
			continue
		}
		if _, ok := versions[req.Version]; !ok {
			return false
		}
	}
	return true
}

// LoadLockfile reads the lockfile at path. A missing, undecodable or
// stale lockfile yields an empty [Lockfile].
func LoadLockfile(ctx context.Context, log *slog.Logger, m Manifest, path string) (Lockfile, error) {
	l, err := config.Read(
		ctx,
		config.Default(Lockfile{}, config.Toml[Lockfile](config.ReadFile(path))),
	)

	var derr config.DecodeError
	if errors.As(err, &derr) {
		log.WarnContext(
			ctx,
			"returning a default lockfile due to an error deserializing the lockfile",
			slog.String("path", path),
			slog.Any("error", err),
		)
		return Lockfile{}, nil
	}
	if err != nil {
		return Lockfile{}, err
	}

	if !l.UpToDate(m) {
		log.DebugContext(ctx, "stale lockfile, discarding its entire contents", slog.String("path", path))
		return Lockfile{}, nil
	}
	return l, nil
}

// SaveLockfile writes l to path as TOML.
func SaveLockfile(l Lockfile, path string) error {
	b, err := toml.Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
