// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package modpack

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/z5labs/minecraft/logging"
	"github.com/z5labs/minecraft/modrinth"

	"golang.org/x/sync/errgroup"
)

// API is the subset of [modrinth.Client] used by the [Resolver].
type API interface {
	Project(ctx context.Context, idOrSlug string) (modrinth.Project, error)
	Versions(ctx context.Context, project, loader, minecraftVersion string) ([]modrinth.Version, error)
	Download(ctx context.Context, v modrinth.Version, f modrinth.File, dir string) (string, error)
}

// Denylist holds project ids and slugs which are never installed.
type Denylist []string

// DefaultDenylist returns the projects known to break a Fabric server.
func DefaultDenylist() Denylist {
	return Denylist{
		// Quilted Fabric API conflicts with Fabric API
		"qsl", "qvIfYCYJ",
	}
}

// Contains reports whether id is denied.
func (d Denylist) Contains(id string) bool {
	return slices.Contains(d, id)
}

// ServerSideUnsupportedError is returned for a project which cannot
// be installed on a server.
type ServerSideUnsupportedError struct {
	ProjectID   string
	ProjectSlug string
}

// Error implements the [error] interface.
func (e ServerSideUnsupportedError) Error() string {
	return fmt.Sprintf("project %s/%s does not support server-side installs", e.ProjectID, e.ProjectSlug)
}

// NoCompatibleVersionError is returned by a strict [Resolver] when no
// version of a project satisfies its requirement.
type NoCompatibleVersionError struct {
	Loader      Loader
	Project     string
	Requirement Requirement
}

// Error implements the [error] interface.
func (e NoCompatibleVersionError) Error() string {
	version := e.Requirement.Version
	if version == "" {
		version = AnyVersion
	}
	return fmt.Sprintf("could not find a compatible %s version of %s matching %q", e.Loader, e.Project, version)
}

// Resolved is a project version selected by the [Resolver].
type Resolved struct {
	Loader  Loader
	Project modrinth.Project
	Version modrinth.Version
}

type resolverOptions struct {
	minecraftVersion string
	serverOnly       bool
	strict           bool
	noDownload       bool
	concurrency      int
	lockfile         Lockfile
	denylist         Denylist
	log              *slog.Logger
}

// ResolverOption configures a [Resolver].
type ResolverOption func(*resolverOptions)

// MinecraftVersion sets the game version artifacts must support.
//
// Default: 1.21.1
func MinecraftVersion(v string) ResolverOption {
	return func(ro *resolverOptions) {
		ro.minecraftVersion = v
	}
}

// ServerOnly validates that every project supports server-side installs.
//
// Default: true
func ServerOnly(b bool) ResolverOption {
	return func(ro *resolverOptions) {
		ro.serverOnly = b
	}
}

// Strict fails resolution when a project has no compatible version.
func Strict(b bool) ResolverOption {
	return func(ro *resolverOptions) {
		ro.strict = b
	}
}

// NoDownload resolves the lockfile without fetching any artifacts.
func NoDownload(b bool) ResolverOption {
	return func(ro *resolverOptions) {
		ro.noDownload = b
	}
}

// Concurrency bounds the number of parallel downloads.
//
// Default: 4
func Concurrency(n int) ResolverOption {
	return func(ro *resolverOptions) {
		ro.concurrency = n
	}
}

// WithLockfile restricts resolution to the versions recorded in l.
func WithLockfile(l Lockfile) ResolverOption {
	return func(ro *resolverOptions) {
		ro.lockfile = l
	}
}

// WithDenylist overrides [DefaultDenylist].
func WithDenylist(d Denylist) ResolverOption {
	return func(ro *resolverOptions) {
		ro.denylist = d
	}
}

// Logger sets the logger used for resolution warnings.
func Logger(l *slog.Logger) ResolverOption {
	return func(ro *resolverOptions) {
		ro.log = l
	}
}

// Resolver turns a [Manifest] into a [Lockfile].
type Resolver struct {
	api      API
	manifest Manifest
	opts     resolverOptions
}

// NewResolver returns a [Resolver] for m backed by api.
func NewResolver(api API, m Manifest, opts ...ResolverOption) *Resolver {
	ro := resolverOptions{
		minecraftVersion: "1.21.1",
		serverOnly:       true,
		concurrency:      4,
		denylist:         DefaultDenylist(),
		log:              logging.Discard(),
	}
	for _, opt := range opts {
		opt(&ro)
	}
	return &Resolver{
		api:      api,
		manifest: m,
		opts:     ro,
	}
}

// Resolve selects a version for every manifest project and, transitively,
// for each of their required dependencies.
func (r *Resolver) Resolve(ctx context.Context) ([]Resolved, error) {
	var all []Resolved
	for _, loader := range Loaders {
		resolved, err := r.resolveLoader(ctx, loader)
		if err != nil {
			return nil, err
		}
		all = append(all, resolved...)
	}
	return all, nil
}

type visitKey struct {
	project string
	version string
}

func (r *Resolver) resolveLoader(ctx context.Context, loader Loader) ([]Resolved, error) {
	index := r.opts.lockfile.Index(loader)
	projects := r.manifest.Projects(loader)

	visited := make(map[visitKey]bool)
	selected := make(map[visitKey]bool)
	var queue []Resolved
	enqueue := func(name string, req Requirement) error {
		key := visitKey{project: name, version: req.Version}
		if visited[key] {
			return nil
		}
		visited[key] = true

		res, ok, err := r.resolveProject(ctx, loader, index, name, req)
		if err != nil || !ok {
			return err
		}
		queue = append(queue, res)
		return nil
	}

	for _, name := range slices.Sorted(maps.Keys(projects)) {
		err := enqueue(name, projects[name])
		if err != nil {
			return nil, err
		}
	}

	var resolved []Resolved
	for len(queue) > 0 {
		res := queue[0]
		queue = queue[1:]

		key := visitKey{project: res.Version.ProjectID, version: res.Version.ID}
		if selected[key] {
			continue
		}
		selected[key] = true
		resolved = append(resolved, res)

		for _, dep := range res.Version.Dependencies {
			if dep.DependencyType != modrinth.RequiredDependency {
				continue
			}
			if dep.ProjectID == "" {
				r.opts.log.WarnContext(
					ctx,
					"missing project id",
					slog.String("dependent", res.Project.Slug),
					slog.String("version_id", dep.VersionID),
				)
				continue
			}

			err := enqueue(dep.ProjectID, Requirement{Version: dep.VersionID})
			if err != nil {
				return nil, err
			}
		}
	}
	return resolved, nil
}

func (r *Resolver) resolveProject(ctx context.Context, loader Loader, index Index, name string, req Requirement) (Resolved, bool, error) {
	log := r.opts.log.With(
		slog.String("loader", loader.String()),
		slog.String("project", name),
	)

	project, err := r.api.Project(ctx, name)
	if err != nil {
		return Resolved{}, false, err
	}
	if r.opts.denylist.Contains(project.ID) || r.opts.denylist.Contains(project.Slug) {
		log.InfoContext(ctx, "skipping denied project")
		return Resolved{}, false, nil
	}

	if r.opts.serverOnly {
		err = validateServerCompatibility(ctx, log, project)
		if err != nil {
			return Resolved{}, false, err
		}
	}

	versions, err := r.api.Versions(ctx, project.ID, loader.String(), r.opts.minecraftVersion)
	if err != nil {
		return Resolved{}, false, err
	}

	var latest *modrinth.Version
	for i, v := range versions {
		if !req.Matches(v.ID, v.VersionNumber) || !index.Contains(v.ProjectID, v.ID) {
			continue
		}
		if latest == nil || v.DatePublished.After(latest.DatePublished) {
			latest = &versions[i]
		}
	}
	if latest == nil {
		if r.opts.strict {
			return Resolved{}, false, NoCompatibleVersionError{Loader: loader, Project: name, Requirement: req}
		}
		log.WarnContext(ctx, "could not find a compatible version", slog.String("minecraft_version", r.opts.minecraftVersion))
		return Resolved{}, false, nil
	}

	res := Resolved{
		Loader:  loader,
		Project: project,
		Version: *latest,
	}
	return res, true, nil
}

func validateServerCompatibility(ctx context.Context, log *slog.Logger, p modrinth.Project) error {
	switch {
	case p.ServerSide == modrinth.Unsupported:
		return ServerSideUnsupportedError{ProjectID: p.ID, ProjectSlug: p.Slug}
	case p.ClientSide == modrinth.Required:
		log.WarnContext(ctx, "project requires a client-side install")
	case p.ServerSide == modrinth.Unknown || p.ClientSide == modrinth.Unknown:
		log.WarnContext(ctx, "project lists either server- or client-side installation requirements as unknown")
	}
	return nil
}

// Process resolves the manifest and downloads the primary files of every
// selected version into a directory per [Loader] below outputDir.
func (r *Resolver) Process(ctx context.Context, outputDir string) (Lockfile, error) {
	resolved, err := r.Resolve(ctx)
	if err != nil {
		return Lockfile{}, err
	}

	if !r.opts.noDownload {
		for _, loader := range Loaders {
			err := os.MkdirAll(filepath.Join(outputDir, loader.String()), 0o755)
			if err != nil {
				return Lockfile{}, err
			}
		}
	}

	var (
		mu        sync.Mutex
		artifacts = make(map[Loader][]Artifact)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.opts.concurrency, 1))
	for _, res := range resolved {
		g.Go(func() error {
			as, err := r.fetch(gctx, res, filepath.Join(outputDir, res.Loader.String()))
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			artifacts[res.Loader] = append(artifacts[res.Loader], as...)
			return nil
		})
	}
	err = g.Wait()
	if err != nil {
		return Lockfile{}, err
	}

	var l Lockfile
	for _, loader := range Loaders {
		as := artifacts[loader]
		slices.SortFunc(as, func(a, b Artifact) int {
			return cmp.Or(
				cmp.Compare(a.ProjectSlug, b.ProjectSlug),
				cmp.Compare(a.Filename, b.Filename),
			)
		})
		l.set(loader, as)
	}
	return l, nil
}

func (r *Resolver) fetch(ctx context.Context, res Resolved, dir string) ([]Artifact, error) {
	var artifacts []Artifact
	for _, f := range res.Version.PrimaryFiles() {
		a, err := NewArtifact(res.Project, res.Version, f)
		if err != nil {
			return nil, err
		}
		if !r.opts.noDownload {
			_, err = r.api.Download(ctx, res.Version, f, dir)
			if err != nil {
				return nil, err
			}
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}
