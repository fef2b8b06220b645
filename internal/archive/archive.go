// Package archive iterates over the entries of SDK archives one at a time.
//
// Zip and gzip-compressed tar files are supported. Next only advances once
// the caller is done with the current entry, so at most one entry is open
// at any moment regardless of the archive size.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/sdkerr"
)

// Format is an archive container format.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatTarGz
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTarGz:
		return "tar.gz"
	default:
		return "unknown"
	}
}

// FormatOf returns the format implied by the file name's extension.
func FormatOf(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz
	default:
		return FormatUnknown
	}
}

// Supported reports whether name has an archive extension Open accepts.
func Supported(name string) bool {
	return FormatOf(name) != FormatUnknown
}

// ErrUnsafePath is wrapped when an entry name is absolute or escapes the
// archive root.
var ErrUnsafePath = errors.New("unsafe entry path")

// Entry is one archive member.
type Entry struct {
	// Name is the slash-separated, cleaned path inside the archive.
	Name     string
	IsDir    bool
	Mode     fs.FileMode
	Linkname string

	open func() (io.ReadCloser, error)
}

// IsSymlink reports whether the entry is a symbolic link.
func (e *Entry) IsSymlink() bool {
	return e.Mode&fs.ModeSymlink != 0
}

// Open returns the entry's contents. For tar archives the reader is only
// valid until the next call to Next.
func (e *Entry) Open() (io.ReadCloser, error) {
	if e.IsDir {
		return nil, fmt.Errorf("%s is a directory", e.Name)
	}
	return e.open()
}

// Reader yields archive entries in order. Next returns io.EOF after the
// last entry.
type Reader interface {
	Next() (*Entry, error)
	Close() error
}

// Open opens the archive at path. The format comes from the extension, or
// from the leading bytes when the name has none we recognize. An
// unrecognized file is BadInput and an unreadable container is Transport.
func Open(path string) (Reader, error) {
	format := FormatOf(path)
	if format == FormatUnknown {
		format = sniff(path)
	}

	switch format {
	case FormatZip:
		return openZip(path)
	case FormatTarGz:
		return openTarGz(path)
	default:
		return nil, sdkerr.BadInput("unsupported archive type: %s", filepath.Base(path)).With("file", path)
	}
}

// sniff identifies a format from magic bytes.
func sniff(path string) Format {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown
	}
	defer f.Close()

	var magic [4]byte
	n, _ := io.ReadFull(f, magic[:])
	switch {
	case n >= 4 && string(magic[:4]) == "PK\x03\x04":
		return FormatZip
	case n >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		return FormatTarGz
	default:
		return FormatUnknown
	}
}

// cleanName normalizes an entry name and rejects names that would land
// outside the extraction directory.
func cleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	cleaned := path.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return cleaned, nil
}

// broken wraps a container read failure.
func broken(path string, err error) error {
	return sdkerr.Transport(err, "read archive %s", filepath.Base(path)).With("file", path)
}

// checkLink rejects symlink targets that are absolute or resolve outside
// the archive root relative to the link's own directory.
func checkLink(name, link string) error {
	link = strings.ReplaceAll(link, `\`, "/")
	if link == "" || strings.HasPrefix(link, "/") || filepath.IsAbs(link) || filepath.VolumeName(link) != "" {
		return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, name, link)
	}
	resolved := path.Clean(path.Join(path.Dir(name), link))
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, name, link)
	}
	return nil
}

// WriteTo materializes e under dir and returns the path written. See
// WriteToRoot.
func (e *Entry) WriteTo(dir string) (string, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", dir, err)
	}
	defer root.Close()

	if err := e.WriteToRoot(root); err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(e.Name)), nil
}

// WriteToRoot materializes e inside root: directories are created with their
// parents, files are streamed to disk and symlinks are recreated. Symlinks
// must point inside the root, and every path is resolved through root, so an
// earlier link can never redirect a later entry outside of it.
func (e *Entry) WriteToRoot(root *os.Root) error {
	name := filepath.FromSlash(e.Name)

	if e.IsDir {
		if err := root.MkdirAll(name, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", e.Name, err)
		}
		return nil
	}

	if parent := filepath.Dir(name); parent != "." {
		if err := root.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("create parent dir for %s: %w", e.Name, err)
		}
	}

	rc, err := e.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if e.IsSymlink() {
		link := e.Linkname
		if link == "" {
			data, err := io.ReadAll(rc)
			if err != nil {
				return err
			}
			link = string(data)
		}
		if err := checkLink(e.Name, link); err != nil {
			return err
		}
		_ = root.Remove(name)
		if err := root.Symlink(link, name); err != nil {
			return fmt.Errorf("create symlink %s: %w", e.Name, err)
		}
		return nil
	}

	mode := e.Mode.Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := root.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %s: %w", e.Name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", e.Name, err)
	}
	return nil
}
