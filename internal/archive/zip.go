package archive

import (
	"io"
	"io/fs"

	"github.com/klauspost/compress/zip"
)

type zipReader struct {
	path string
	zr   *zip.ReadCloser
	pos  int
}

func openZip(path string) (*zipReader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil && zr == nil {
		return nil, broken(path, err)
	}
	// A reader returned alongside an error flags insecure names, which
	// cleanName rejects per entry.
	return &zipReader{path: path, zr: zr}, nil
}

func (r *zipReader) Next() (*Entry, error) {
	for r.pos < len(r.zr.File) {
		f := r.zr.File[r.pos]
		r.pos++

		name, err := cleanName(f.Name)
		if err != nil {
			return nil, err
		}
		if name == "." {
			continue
		}

		mode := f.Mode()
		return &Entry{
			Name:  name,
			IsDir: mode.IsDir() || f.Name[len(f.Name)-1] == '/',
			Mode:  mode &^ fs.ModeDir,
			open: func() (io.ReadCloser, error) {
				rc, err := f.Open()
				if err != nil {
					return nil, broken(r.path, err)
				}
				return &checkedReader{rc: rc, path: r.path}, nil
			},
		}, nil
	}
	return nil, io.EOF
}

func (r *zipReader) Close() error {
	return r.zr.Close()
}

// checkedReader classifies read failures (bad CRC, truncated data) as a
// broken archive.
type checkedReader struct {
	rc   io.ReadCloser
	path string
}

func (c *checkedReader) Read(p []byte) (int, error) {
	n, err := c.rc.Read(p)
	if err != nil && err != io.EOF {
		return n, broken(c.path, err)
	}
	return n, err
}

func (c *checkedReader) Close() error {
	return c.rc.Close()
}
