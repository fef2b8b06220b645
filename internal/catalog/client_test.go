package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/platform"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/sdkerr"
)

const releasesJSON = `[
  {"os": "linux", "name": "7.0.0.GA", "build_type": "64bit", "version": "7.0.0", "url": "https://dl/linux-7.0.0.zip"},
  {"os": "linux", "name": "7.1.0.GA", "build_type": "64bit", "version": "7.1.0", "url": "https://dl/linux-7.1.0.zip"},
  {"os": "linux", "name": "7.1.0.GA", "build_type": "32bit", "version": "7.1.0", "url": "https://dl/linux32-7.1.0.zip"},
  {"os": "osx", "name": "7.1.0.GA", "build_type": "32bit", "version": "7.1.0", "url": "https://dl/osx-7.1.0.zip"},
  {"os": "win32", "name": "7.1.0.GA", "build_type": "64bit", "version": "7.1.0", "url": "https://dl/win-7.1.0.zip"}
]`

const branchesJSON = `{"branches": ["master", "7_0_X", "8_0_X"], "defaultBranch": "master"}`

const buildsJSON = `[
  {"build_type": "mobile", "filename": "mobilesdk-8.0.0.v20190101120000-linux.zip", "git_branch": "master", "git_revision": "aaa"},
  {"build_type": "mobile", "filename": "mobilesdk-8.0.0.v20190202120000-linux.zip", "git_branch": "master", "git_revision": "bbb"},
  {"build_type": "mobile", "filename": "mobilesdk-7.5.0-20190303120000-linux.zip", "git_branch": "master", "git_revision": "ccc"},
  {"build_type": "mobile", "filename": "mobilesdk-8.0.0.v20190202120000-osx.zip", "git_branch": "master", "git_revision": "bbb"},
  {"build_type": "mobile", "filename": "mobilesdk-nonsense-linux.zip", "git_branch": "master", "git_revision": "ddd"}
]`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/releases", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(releasesJSON))
	})
	mux.HandleFunc("/wrapped", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"releases": ` + releasesJSON + `}`))
	})
	mux.HandleFunc("/branches.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(branchesJSON))
	})
	mux.HandleFunc("/builds/master/index.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(buildsJSON))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"branches": [`))
	})
	mux.HandleFunc("/agent", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "tisdk-test" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(branchesJSON))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server, info platform.Info) *Client {
	detected, _ := platform.NewStatic(info).Detect(context.Background())
	return NewClient(detected, Options{
		ReleasesURL: server.URL + "/releases",
		BranchesURL: server.URL + "/branches.json",
		BuildsURL:   server.URL + "/builds/%s/index.json",
		UserAgent:   "tisdk-test",
		HTTPClient:  NewHTTPClient(5 * time.Second),
	})
}

func TestReleases_FilteredByPlatform(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name string
		info platform.Info
		want map[string]string
	}{
		{
			name: "linux 64-bit",
			info: platform.Info{OS: "linux", Arch: "amd64"},
			want: map[string]string{"7.0.0.GA": "https://dl/linux-7.0.0.zip", "7.1.0.GA": "https://dl/linux-7.1.0.zip"},
		},
		{
			name: "linux 32-bit",
			info: platform.Info{OS: "linux", Arch: "386"},
			want: map[string]string{"7.1.0.GA": "https://dl/linux32-7.1.0.zip"},
		},
		{
			name: "macOS ignores bitness",
			info: platform.Info{OS: "darwin", Arch: "arm64"},
			want: map[string]string{"7.1.0.GA": "https://dl/osx-7.1.0.zip"},
		},
		{
			name: "windows",
			info: platform.Info{OS: "windows", Arch: "amd64"},
			want: map[string]string{"7.1.0.GA": "https://dl/win-7.1.0.zip"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			releases, err := newTestClient(server, tt.info).Releases(context.Background())
			require.NoError(t, err)

			got := make(map[string]string)
			for name, rel := range releases {
				got[name] = rel.URL
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReleases_WrappedBody(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(server, platform.Info{OS: "linux", Arch: "amd64"})
	client.opts.ReleasesURL = server.URL + "/wrapped"

	releases, err := client.Releases(context.Background())
	require.NoError(t, err)
	assert.Len(t, releases, 2)
}

func TestReleases_LatestAndNames(t *testing.T) {
	releases := Releases{
		"7.0.0.GA":  {Name: "7.0.0.GA", URL: "u1"},
		"7.10.0.GA": {Name: "7.10.0.GA", URL: "u3"},
		"7.9.0.GA":  {Name: "7.9.0.GA", URL: "u2"},
	}

	latest, ok := releases.Latest()
	require.True(t, ok)
	assert.Equal(t, "u3", latest.URL)
	assert.Equal(t, []string{"7.10.0.GA", "7.9.0.GA", "7.0.0.GA"}, releases.Names())

	_, ok = Releases{}.Latest()
	assert.False(t, ok)
}

func TestBranches(t *testing.T) {
	server := newTestServer(t)
	branches, err := newTestClient(server, platform.Info{OS: "linux", Arch: "amd64"}).Branches(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "master", branches.DefaultBranch)
	assert.True(t, branches.Has("7_0_X"))
	assert.False(t, branches.Has("9_0_X"))
	assert.Equal(t, []string{"master", "8_0_X", "7_0_X"}, branches.SearchOrder())
}

func TestSearchOrder_NoDefault(t *testing.T) {
	b := &Branches{Branches: []string{"a", "c", "b"}}
	assert.Equal(t, []string{"c", "b", "a"}, b.SearchOrder())
}

func TestBuilds(t *testing.T) {
	server := newTestServer(t)
	builds, err := newTestClient(server, platform.Info{OS: "linux", Arch: "amd64"}).Builds(context.Background(), "master")
	require.NoError(t, err)
	require.Len(t, builds, 3)

	assert.Equal(t, "8.0.0.v20190202120000", builds[0].Name)
	assert.Equal(t, "bbb", builds[0].GitHash)
	assert.Equal(t, server.URL+"/builds/master/mobilesdk-8.0.0.v20190202120000-linux.zip", builds[0].URL)
	assert.Equal(t, "master", builds[0].Branch)
	assert.Equal(t, time.Date(2019, 2, 2, 12, 0, 0, 0, time.UTC), builds[0].Date)

	assert.Equal(t, "8.0.0.v20190101120000", builds[1].Name)
	assert.Equal(t, "7.5.0.v20190303120000", builds[2].Name)
	assert.Equal(t, "20190303120000", builds[2].Timestamp)
}

func TestParseBuild(t *testing.T) {
	tests := []struct {
		filename string
		wantName string
		wantOK   bool
	}{
		{"mobilesdk-7.0.0.v20171231235959-osx.zip", "7.0.0.v20171231235959", true},
		{"mobilesdk-7.0.0-20171231235959-win32.zip", "7.0.0.v20171231235959", true},
		{"mobilesdk-7.0.0.v2017123123595-osx.zip", "", false},
		{"titanium-7.0.0.v20171231235959-osx.zip", "", false},
		{"mobilesdk-7.0.0.v20171231235959.zip", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			b, ok := parseBuild(tt.filename)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, b.Name)
		})
	}
}

func TestFetchErrors(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(server, platform.Info{OS: "linux", Arch: "amd64"})

	t.Run("status 404", func(t *testing.T) {
		_, err := client.Builds(context.Background(), "missing")
		require.Error(t, err)
		assert.Equal(t, sdkerr.KindTransport, sdkerr.KindOf(err))

		var httpErr *sdkerr.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
		assert.Equal(t, "Not Found", httpErr.Reason)
	})

	t.Run("malformed body", func(t *testing.T) {
		client.opts.BranchesURL = server.URL + "/broken"
		_, err := client.Branches(context.Background())
		require.Error(t, err)
		assert.Equal(t, sdkerr.KindTransport, sdkerr.KindOf(err))
		assert.ErrorIs(t, err, sdkerr.ErrMalformedResponse)
	})

	t.Run("transport failure", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		dead.Close()
		client.opts.ReleasesURL = dead.URL + "/releases"

		_, err := client.Releases(context.Background())
		require.Error(t, err)
		assert.Equal(t, sdkerr.KindTransport, sdkerr.KindOf(err))
		assert.NotErrorIs(t, err, sdkerr.ErrMalformedResponse)
	})
}

func TestUserAgentSent(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(server, platform.Info{OS: "linux", Arch: "amd64"})
	client.opts.BranchesURL = server.URL + "/agent"

	_, err := client.Branches(context.Background())
	assert.NoError(t, err)
}
