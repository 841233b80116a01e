// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package modpack

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/z5labs/minecraft/logging"
	"github.com/z5labs/minecraft/modrinth"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func discard() *slog.Logger {
	return logging.Discard()
}

type fakeAPI struct {
	projects map[string]modrinth.Project
	versions map[string][]modrinth.Version

	mu            sync.Mutex
	projectCalls  map[string]int
	downloaded    []string
	downloadErr   error
	versionsCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		projects:     make(map[string]modrinth.Project),
		versions:     make(map[string][]modrinth.Version),
		projectCalls: make(map[string]int),
	}
}

func (f *fakeAPI) addProject(p modrinth.Project, vs ...modrinth.Version) {
	f.projects[p.ID] = p
	f.projects[p.Slug] = p
	f.versions[p.ID] = vs
}

func (f *fakeAPI) Project(ctx context.Context, idOrSlug string) (modrinth.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.projectCalls[idOrSlug]++
	p, ok := f.projects[idOrSlug]
	if !ok {
		return modrinth.Project{}, modrinth.StatusError{StatusCode: 404}
	}
	return p, nil
}

func (f *fakeAPI) Versions(ctx context.Context, project, loader, minecraftVersion string) ([]modrinth.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.versionsCalls++
	var vs []modrinth.Version
	for _, v := range f.versions[project] {
		if v.SupportsLoader(loader) {
			vs = append(vs, v)
		}
	}
	return vs, nil
}

func (f *fakeAPI) Download(ctx context.Context, v modrinth.Version, file modrinth.File, dir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	path := filepath.Join(dir, file.Filename)
	f.downloaded = append(f.downloaded, path)
	return path, os.WriteFile(path, []byte(file.Hashes.SHA512), 0o644)
}

func day(d int) time.Time {
	return time.Date(2024, time.August, d, 0, 0, 0, 0, time.UTC)
}

func jar(name, sum string) modrinth.File {
	return modrinth.File{
		Hashes:   modrinth.Hashes{SHA512: sum},
		URL:      "https://cdn.modrinth.com/" + name,
		Filename: name,
		Primary:  true,
	}
}

func required(projectID, versionID string) modrinth.Dependency {
	return modrinth.Dependency{ProjectID: projectID, VersionID: versionID, DependencyType: modrinth.RequiredDependency}
}

var serverMod = modrinth.Project{ClientSide: modrinth.Optional, ServerSide: modrinth.Required}

func project(id, slug string) modrinth.Project {
	p := serverMod
	p.ID = id
	p.Slug = slug
	return p
}

func fabricServerAPI() *fakeAPI {
	api := newFakeAPI()
	api.addProject(
		project("gvQqBUqZ", "lithium"),
		modrinth.Version{
			ID: "lith-old", ProjectID: "gvQqBUqZ", VersionNumber: "0.12.0",
			Loaders: []string{"fabric"}, DatePublished: day(1),
			Files: []modrinth.File{jar("lithium-0.12.0.jar", "aa")},
		},
		modrinth.Version{
			ID: "lith-new", ProjectID: "gvQqBUqZ", VersionNumber: "0.13.0",
			Loaders: []string{"fabric"}, DatePublished: day(5),
			Files: []modrinth.File{
				jar("lithium-0.13.0.jar", "bb"),
				{Hashes: modrinth.Hashes{SHA512: "cc"}, Filename: "lithium-0.13.0-sources.jar"},
			},
			Dependencies: []modrinth.Dependency{
				required("P7dR8mSH", ""),
				{ProjectID: "AANobbMI", DependencyType: modrinth.OptionalDependency},
				{VersionID: "orphan", DependencyType: modrinth.RequiredDependency},
			},
		},
		modrinth.Version{
			ID: "lith-quilt", ProjectID: "gvQqBUqZ", VersionNumber: "0.13.0+quilt",
			Loaders: []string{"quilt"}, DatePublished: day(9),
			Files: []modrinth.File{jar("lithium-quilt.jar", "dd")},
		},
	)
	api.addProject(
		project("P7dR8mSH", "fabric-api"),
		modrinth.Version{
			ID: "fapi1", ProjectID: "P7dR8mSH", VersionNumber: "0.102.0",
			Loaders: []string{"fabric"}, DatePublished: day(3),
			Files:        []modrinth.File{jar("fabric-api.jar", "ee")},
			Dependencies: []modrinth.Dependency{required("gvQqBUqZ", "")},
		},
	)
	api.addProject(
		project("qvIfYCYJ", "qsl"),
		modrinth.Version{
			ID: "qsl1", ProjectID: "qvIfYCYJ", VersionNumber: "8.0.0",
			Loaders: []string{"fabric"}, DatePublished: day(3),
			Files: []modrinth.File{jar("qsl.jar", "ff")},
		},
	)
	return api
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("will pick the most recent version and its required dependencies", func(t *testing.T) {
		api := fabricServerAPI()
		m := Manifest{Fabric: map[string]Requirement{"lithium": {}}}

		resolved, err := NewResolver(api, m, Logger(discard())).Resolve(context.Background())
		require.NoError(t, err)
		require.Len(t, resolved, 2)

		require.Equal(t, "lith-new", resolved[0].Version.ID)
		require.Equal(t, Fabric, resolved[0].Loader)
		require.Equal(t, "fapi1", resolved[1].Version.ID)
		require.Equal(t, "fabric-api", resolved[1].Project.Slug)
	})

	t.Run("will visit each dependency once", func(t *testing.T) {
		api := fabricServerAPI()
		m := Manifest{Fabric: map[string]Requirement{"lithium": {}, "fabric-api": {}}}

		resolved, err := NewResolver(api, m).Resolve(context.Background())
		require.NoError(t, err)
		require.Len(t, resolved, 2)
		require.Equal(t, 1, api.projectCalls["P7dR8mSH"])
		require.Equal(t, 1, api.projectCalls["gvQqBUqZ"])
	})

	t.Run("will honour a pinned version", func(t *testing.T) {
		api := fabricServerAPI()
		m := Manifest{Fabric: map[string]Requirement{"lithium": {Version: "0.12.0"}}}

		resolved, err := NewResolver(api, m).Resolve(context.Background())
		require.NoError(t, err)
		require.Len(t, resolved, 1)
		require.Equal(t, "lith-old", resolved[0].Version.ID)
	})

	t.Run("will only select locked versions", func(t *testing.T) {
		api := fabricServerAPI()
		m := Manifest{Fabric: map[string]Requirement{"lithium": {}}}
		l := Lockfile{Fabric: []Artifact{
			{ProjectID: "gvQqBUqZ", VersionID: "lith-old"},
			{ProjectID: "P7dR8mSH", VersionID: "fapi1"},
		}}

		resolved, err := NewResolver(api, m, WithLockfile(l)).Resolve(context.Background())
		require.NoError(t, err)
		require.Len(t, resolved, 1)
		require.Equal(t, "lith-old", resolved[0].Version.ID)
	})

	t.Run("will skip denied projects", func(t *testing.T) {
		api := fabricServerAPI()
		m := Manifest{Fabric: map[string]Requirement{"qsl": {}}}

		resolved, err := NewResolver(api, m).Resolve(context.Background())
		require.NoError(t, err)
		require.Empty(t, resolved)
		require.Zero(t, api.versionsCalls)
	})

	t.Run("will warn when no compatible version exists", func(t *testing.T) {
		api := fabricServerAPI()
		m := Manifest{Fabric: map[string]Requirement{"lithium": {Version: "9.9.9"}}}

		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, nil))

		resolved, err := NewResolver(api, m, Logger(log)).Resolve(context.Background())
		require.NoError(t, err)
		require.Empty(t, resolved)
		require.Contains(t, buf.String(), "could not find a compatible version")
	})

	t.Run("will return a NoCompatibleVersionError when strict", func(t *testing.T) {
		api := fabricServerAPI()
		m := Manifest{Datapack: map[string]Requirement{"lithium": {}}}

		_, err := NewResolver(api, m, Strict(true)).Resolve(context.Background())

		var nerr NoCompatibleVersionError
		require.ErrorAs(t, err, &nerr)
		require.Equal(t, Datapack, nerr.Loader)
		require.Equal(t, "lithium", nerr.Project)
	})

	t.Run("will validate server compatibility", func(t *testing.T) {
		testCases := []struct {
			name       string
			clientSide modrinth.PlatformRequirement
			serverSide modrinth.PlatformRequirement
			wantErr    bool
			warning    string
		}{
			{name: "server unsupported", clientSide: modrinth.Optional, serverSide: modrinth.Unsupported, wantErr: true},
			{name: "client required", clientSide: modrinth.Required, serverSide: modrinth.Required, warning: "requires a client-side install"},
			{name: "server unknown", clientSide: modrinth.Optional, serverSide: modrinth.Unknown, warning: "unknown"},
			{name: "client unknown", clientSide: modrinth.Unknown, serverSide: modrinth.Optional, warning: "unknown"},
			{name: "server only", clientSide: modrinth.Unsupported, serverSide: modrinth.Required},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				api := newFakeAPI()
				api.addProject(
					modrinth.Project{ID: "x", Slug: "mod", ClientSide: tc.clientSide, ServerSide: tc.serverSide},
					modrinth.Version{ID: "v", ProjectID: "x", Loaders: []string{"fabric"}, Files: []modrinth.File{jar("mod.jar", "aa")}},
				)
				m := Manifest{Fabric: map[string]Requirement{"mod": {}}}

				var buf bytes.Buffer
				log := slog.New(slog.NewTextHandler(&buf, nil))

				resolved, err := NewResolver(api, m, Logger(log)).Resolve(context.Background())
				if tc.wantErr {
					var serr ServerSideUnsupportedError
					require.ErrorAs(t, err, &serr)
					require.Equal(t, "mod", serr.ProjectSlug)
					return
				}
				require.NoError(t, err)
				require.Len(t, resolved, 1)
				if tc.warning != "" {
					require.Contains(t, buf.String(), tc.warning)
					return
				}
				require.NotContains(t, buf.String(), "level=WARN")
			})
		}

		t.Run("unless server only is disabled", func(t *testing.T) {
			api := newFakeAPI()
			api.addProject(
				modrinth.Project{ID: "x", Slug: "mod", ClientSide: modrinth.Required, ServerSide: modrinth.Unsupported},
				modrinth.Version{ID: "v", ProjectID: "x", Loaders: []string{"fabric"}},
			)
			m := Manifest{Fabric: map[string]Requirement{"mod": {}}}

			resolved, err := NewResolver(api, m, ServerOnly(false)).Resolve(context.Background())
			require.NoError(t, err)
			require.Len(t, resolved, 1)
		})
	})

	t.Run("will propagate api errors", func(t *testing.T) {
		api := fabricServerAPI()
		m := Manifest{Fabric: map[string]Requirement{"missing": {}}}

		_, err := NewResolver(api, m).Resolve(context.Background())

		var serr modrinth.StatusError
		require.ErrorAs(t, err, &serr)
	})
}

func TestResolver_Process(t *testing.T) {
	t.Run("will download primary files and return a sorted lockfile", func(t *testing.T) {
		api := fabricServerAPI()
		m := Manifest{Fabric: map[string]Requirement{"lithium": {}}}
		out := t.TempDir()

		l, err := NewResolver(api, m, Concurrency(2)).Process(context.Background(), out)
		require.NoError(t, err)

		require.Empty(t, l.Datapack)
		require.Equal(t, []Artifact{
			{ProjectID: "P7dR8mSH", ProjectSlug: "fabric-api", VersionID: "fapi1", VersionNumber: "0.102.0", Filename: "fabric-api.jar", Checksum: "ee"},
			{ProjectID: "gvQqBUqZ", ProjectSlug: "lithium", VersionID: "lith-new", VersionNumber: "0.13.0", Filename: "lithium-0.13.0.jar", Checksum: "bb"},
		}, l.Fabric)

		require.FileExists(t, filepath.Join(out, "fabric", "lithium-0.13.0.jar"))
		require.FileExists(t, filepath.Join(out, "fabric", "fabric-api.jar"))
		require.NoFileExists(t, filepath.Join(out, "fabric", "lithium-0.13.0-sources.jar"))
		require.DirExists(t, filepath.Join(out, "datapack"))
	})

	t.Run("will not download when disabled", func(t *testing.T) {
		api := fabricServerAPI()
		m := Manifest{Fabric: map[string]Requirement{"lithium": {}}}
		out := t.TempDir()

		l, err := NewResolver(api, m, NoDownload(true)).Process(context.Background(), out)
		require.NoError(t, err)
		require.Len(t, l.Fabric, 2)
		require.Empty(t, api.downloaded)
		require.NoDirExists(t, filepath.Join(out, "fabric"))
	})

	t.Run("will return the download error", func(t *testing.T) {
		api := fabricServerAPI()
		api.downloadErr = errUnavailable
		m := Manifest{Fabric: map[string]Requirement{"lithium": {}}}

		_, err := NewResolver(api, m).Process(context.Background(), t.TempDir())
		require.ErrorIs(t, err, errUnavailable)
	})

	t.Run("will return ErrMissingChecksum for a primary file without a hash", func(t *testing.T) {
		api := newFakeAPI()
		api.addProject(
			project("x", "mod"),
			modrinth.Version{ID: "v", ProjectID: "x", Loaders: []string{"datapack"}, Files: []modrinth.File{{Filename: "mod.zip", Primary: true}}},
		)
		m := Manifest{Datapack: map[string]Requirement{"mod": {}}}

		_, err := NewResolver(api, m).Process(context.Background(), t.TempDir())
		require.ErrorIs(t, err, modrinth.ErrMissingChecksum)
	})
}

func TestResolver_Process_Sorted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		slugs := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,6}`), 1, 6, rapid.ID).Draw(t, "slugs")

		api := newFakeAPI()
		m := Manifest{Datapack: make(map[string]Requirement)}
		for i, slug := range slugs {
			id := "id-" + slug
			api.addProject(project(id, slug), modrinth.Version{
				ID: "v-" + slug, ProjectID: id, Loaders: []string{"datapack"}, DatePublished: day(i + 1),
				Files: []modrinth.File{jar(slug+"-b.zip", "aa"), jar(slug+"-a.zip", "bb")},
			})
			m.Datapack[slug] = Requirement{}
		}

		l, err := NewResolver(api, m, NoDownload(true)).Process(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, l.Datapack, 2*len(slugs))

		for i := 1; i < len(l.Datapack); i++ {
			prev, cur := l.Datapack[i-1], l.Datapack[i]
			require.True(t, prev.ProjectSlug < cur.ProjectSlug || (prev.ProjectSlug == cur.ProjectSlug && prev.Filename < cur.Filename))
		}
	})
}
