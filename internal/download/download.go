// Package download streams SDK archives to disk.
package download

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/catalog"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/logging"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/sdkerr"
)

// Options configures a Downloader.
type Options struct {
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	UserAgent  string
	Logger     logging.Logger
}

// Downloader fetches URLs into files.
type Downloader struct {
	client    *http.Client
	userAgent string
	logger    logging.Logger
}

// New creates a Downloader.
func New(opts Options) *Downloader {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		client:    client,
		userAgent: opts.UserAgent,
		logger:    logging.OrNop(opts.Logger),
	}
}

// File is a completed download.
type File struct {
	Path string
	// Dir is the directory holding Path. When Temp is set it was created for
	// this download and belongs to the caller.
	Dir  string
	Temp bool
}

// Download streams rawURL into dir. When dir is empty a fresh temporary
// directory is created. The body is written to a uniquely named temp file
// that is renamed to the URL's file name once complete. On any failure the
// partial file, and a directory created here, are removed.
func (d *Downloader) Download(ctx context.Context, rawURL, dir string) (*File, error) {
	out := &File{Dir: dir}
	if dir == "" {
		tmp, err := os.MkdirTemp("", "tisdk-download-")
		if err != nil {
			return nil, fmt.Errorf("create download dir: %w", err)
		}
		out.Dir, out.Temp = tmp, true
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	dest, err := d.fetch(ctx, rawURL, out.Dir)
	if err != nil {
		if out.Temp {
			os.RemoveAll(out.Dir)
		}
		return nil, err
	}
	out.Path = dest
	return out, nil
}

func (d *Downloader) fetch(ctx context.Context, rawURL, dir string) (string, error) {
	tmpPath := filepath.Join(dir, "tisdk-"+uuid.NewString()+".download")
	tmpFile, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	d.logger.Debug("downloading", "url", rawURL)
	resp, err := catalog.Get(ctx, d.client, rawURL, d.userAgent)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return "", sdkerr.Transport(err, "download %s", rawURL).With("url", rawURL)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	finalPath := tmpPath
	if name := remoteName(rawURL, resp.Header.Get("Content-Disposition")); name != "" {
		finalPath = filepath.Join(dir, name)
		if err := os.Rename(tmpPath, finalPath); err != nil {
			return "", fmt.Errorf("rename temp file: %w", err)
		}
	}

	cleanupNeeded = false
	d.logger.Debug("downloaded", "url", rawURL, "path", finalPath)
	return finalPath, nil
}

// remoteName returns the file name for a download: the last segment of the
// URL path, or the Content-Disposition filename. It returns "" when neither
// is a plausible file name.
func remoteName(rawURL, disposition string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if name := plausible(path.Base(u.Path)); name != "" {
			return name
		}
	}
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			return plausible(params["filename"])
		}
	}
	return ""
}

func plausible(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return ""
	}
	if strings.ContainsAny(name, `/\`) || !strings.Contains(name, ".") {
		return ""
	}
	return name
}
