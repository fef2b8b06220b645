package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/catalog"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/sdkerr"
)

// fakeCatalog serves canned feeds and records which branch indexes were
// requested.
type fakeCatalog struct {
	releases    catalog.Releases
	branches    *catalog.Branches
	builds      map[string][]catalog.Build
	releasesErr error
	buildsErr   error

	fetched []string
}

func (f *fakeCatalog) Releases(ctx context.Context) (catalog.Releases, error) {
	return f.releases, f.releasesErr
}

func (f *fakeCatalog) Branches(ctx context.Context) (*catalog.Branches, error) {
	if f.branches == nil {
		return &catalog.Branches{}, nil
	}
	return f.branches, nil
}

func (f *fakeCatalog) Builds(ctx context.Context, branch string) ([]catalog.Build, error) {
	f.fetched = append(f.fetched, branch)
	if f.buildsErr != nil {
		return nil, f.buildsErr
	}
	return f.builds[branch], nil
}

func build(branch, ver, ts, hash string) catalog.Build {
	name := ver + ".v" + ts
	return catalog.Build{
		Name:      name,
		Version:   ver,
		Timestamp: ts,
		GitHash:   hash,
		Branch:    branch,
		URL:       "https://builds/" + branch + "/" + name + ".zip",
	}
}

func newFixture() *fakeCatalog {
	return &fakeCatalog{
		releases: catalog.Releases{
			"7.0.0.GA": {Name: "7.0.0.GA", URL: "u1"},
			"7.1.0.GA": {Name: "7.1.0.GA", URL: "u2"},
		},
		branches: &catalog.Branches{
			Branches:      []string{"7_0_X", "master", "8_0_X"},
			DefaultBranch: "master",
		},
		builds: map[string][]catalog.Build{
			"master": {
				build("master", "8.0.0", "20190101000000", "aaa"),
				build("master", "8.0.0", "20190202000000", "bbb"),
				build("master", "7.5.0", "20190303000000", "ccc"),
			},
			"8_0_X": {
				build("8_0_X", "8.0.1", "20190404000000", "ddd"),
			},
			"7_0_X": {
				build("7_0_X", "7.0.5", "20180101000000", "eee"),
			},
		},
	}
}

func TestResolve_Releases(t *testing.T) {
	tests := []struct {
		name        string
		specifier   string
		wantURL     string
		wantVersion string
	}{
		{"latest", "latest", "u2", "7.1.0"},
		{"empty means latest", "", "u2", "7.1.0"},
		{"exact name", "7.0.0.GA", "u1", "7.0.0"},
		{"qualifier appended", "7.0.0", "u1", "7.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := newFixture()
			res, err := New(cat, nil).Resolve(context.Background(), tt.specifier)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, res.URL)
			assert.Equal(t, tt.wantVersion, res.Version)
			assert.Equal(t, SourceRelease, res.Source)
			assert.Empty(t, res.LocalFile)
			assert.Empty(t, cat.fetched, "release hits must not touch CI builds")
		})
	}
}

func TestResolve_LocalFileWins(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	// The file name is also a valid release name.
	name := "7.0.0.GA.zip"
	cat := newFixture()
	cat.releases[name] = catalog.Release{Name: name, URL: "remote"}
	require.NoError(t, os.WriteFile(name, []byte("zip"), 0o644))

	res, err := New(cat, nil).Resolve(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, res.Source)
	assert.Equal(t, name, res.LocalFile)
	assert.Empty(t, res.URL)
}

func TestResolve_FileURI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdk.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("tgz"), 0o644))

	res, err := New(newFixture(), nil).Resolve(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, path, res.LocalFile)
}

func TestResolve_LocalFileErrors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))

	tests := []struct {
		name      string
		specifier string
		kind      sdkerr.Kind
	}{
		{"wrong extension", txt, sdkerr.KindBadInput},
		{"file uri wrong extension", "file://" + txt, sdkerr.KindBadInput},
		{"file uri missing", "file://" + filepath.Join(dir, "missing.zip"), sdkerr.KindNotFound},
		{"file uri directory", "file://" + dir, sdkerr.KindBadInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(newFixture(), nil).Resolve(context.Background(), tt.specifier)
			require.Error(t, err)
			assert.Equal(t, tt.kind, sdkerr.KindOf(err))
		})
	}
}

func TestResolve_URL(t *testing.T) {
	cat := newFixture()
	res, err := New(cat, nil).Resolve(context.Background(), "https://example.com/sdk/mobilesdk-9.0.0-linux.zip")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/sdk/mobilesdk-9.0.0-linux.zip", res.URL)
	assert.Equal(t, SourceURL, res.Source)
	assert.Empty(t, cat.fetched)
}

func TestResolve_BranchVersion(t *testing.T) {
	cat := newFixture()
	res, err := New(cat, nil).Resolve(context.Background(), "master:8.0.0.v20190101000000")
	require.NoError(t, err)
	assert.Equal(t, SourceBuild, res.Source)
	assert.Equal(t, "aaa", res.GitHash)
	assert.Equal(t, "master", res.Branch)
	assert.Equal(t, []string{"master"}, cat.fetched)
}

func TestResolve_BranchLatest(t *testing.T) {
	cat := newFixture()
	res, err := New(cat, nil).Resolve(context.Background(), "master:latest")
	require.NoError(t, err)
	assert.Equal(t, "8.0.0.v20190202000000", res.Name, "ties on version break on newer timestamp")
}

func TestResolve_BareBranch(t *testing.T) {
	cat := newFixture()
	res, err := New(cat, nil).Resolve(context.Background(), "8_0_X")
	require.NoError(t, err)
	assert.Equal(t, "8.0.1.v20190404000000", res.Name)
	assert.Equal(t, []string{"8_0_X"}, cat.fetched)
}

func TestResolve_UnknownBranch(t *testing.T) {
	cat := newFixture()
	_, err := New(cat, nil).Resolve(context.Background(), "nope:8.0.0")
	require.Error(t, err)
	assert.Equal(t, sdkerr.KindBadInput, sdkerr.KindOf(err))
	assert.Equal(t, []string{"master", "8_0_X", "7_0_X"}, sdkerr.DetailsOf(err)["branches"])
	assert.Empty(t, cat.fetched)
}

func TestResolve_GitHashSearchesInOrder(t *testing.T) {
	cat := newFixture()
	res, err := New(cat, nil).Resolve(context.Background(), "eee")
	require.NoError(t, err)
	assert.Equal(t, "7_0_X", res.Branch)
	assert.Equal(t, []string{"master", "8_0_X", "7_0_X"}, cat.fetched)
}

func TestResolve_FirstBranchWins(t *testing.T) {
	cat := &fakeCatalog{
		releases: catalog.Releases{},
		branches: &catalog.Branches{Branches: []string{"b2", "default"}, DefaultBranch: "default"},
		builds: map[string][]catalog.Build{
			"default": {{Name: "x", Version: "1.0.0", URL: "default-url"}},
			"b2":      {{Name: "x", Version: "1.0.0", URL: "b2-url"}},
		},
	}

	res, err := New(cat, nil).Resolve(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "default-url", res.URL)
	assert.Equal(t, []string{"default"}, cat.fetched, "later branches must not be fetched")
}

func TestResolve_LatestFallsBackToBuilds(t *testing.T) {
	cat := newFixture()
	cat.releases = catalog.Releases{}

	res, err := New(cat, nil).Resolve(context.Background(), "latest")
	require.NoError(t, err)
	assert.Equal(t, SourceBuild, res.Source)
	assert.Equal(t, "master", res.Branch)
}

func TestResolve_NotFound(t *testing.T) {
	t.Run("explicit target", func(t *testing.T) {
		_, err := New(newFixture(), nil).Resolve(context.Background(), "99.0.0")
		require.Error(t, err)
		assert.Equal(t, sdkerr.KindNotFound, sdkerr.KindOf(err))
		assert.Contains(t, err.Error(), `"99.0.0"`)
		assert.Equal(t, "99.0.0", sdkerr.DetailsOf(err)["specifier"])
		assert.Equal(t, []string{"master", "8_0_X", "7_0_X"}, sdkerr.DetailsOf(err)["branches"])
	})

	t.Run("nothing installable", func(t *testing.T) {
		cat := &fakeCatalog{releases: catalog.Releases{}}
		_, err := New(cat, nil).Resolve(context.Background(), "latest")
		require.Error(t, err)
		assert.Equal(t, sdkerr.KindNotFound, sdkerr.KindOf(err))
		assert.Contains(t, err.Error(), "no installable")
		assert.Nil(t, sdkerr.DetailsOf(err)["specifier"])
	})
}

func TestResolve_CatalogErrorsSurface(t *testing.T) {
	boom := sdkerr.Transport(errors.New("connection reset"), "request failed")

	cat := newFixture()
	cat.releasesErr = boom
	_, err := New(cat, nil).Resolve(context.Background(), "7.0.0")
	assert.ErrorIs(t, err, boom)

	cat = newFixture()
	cat.buildsErr = boom
	_, err = New(cat, nil).Resolve(context.Background(), "master")
	assert.ErrorIs(t, err, boom)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
