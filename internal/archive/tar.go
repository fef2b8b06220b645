package archive

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/gzip"
)

type tarGzReader struct {
	path string
	f    *os.File
	gz   *gzip.Reader
	tr   *tar.Reader
}

func openTarGz(path string) (*tarGzReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, broken(path, err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, broken(path, err)
	}
	return &tarGzReader{path: path, f: f, gz: gz, tr: tar.NewReader(gz)}, nil
}

func (r *tarGzReader) Next() (*Entry, error) {
	for {
		hdr, err := r.tr.Next()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, broken(r.path, err)
		}

		var mode fs.FileMode
		isDir := false
		switch hdr.Typeflag {
		case tar.TypeDir:
			isDir = true
		case tar.TypeReg:
		case tar.TypeSymlink:
			mode = fs.ModeSymlink
		default:
			// devices, fifos and hard links are skipped
			continue
		}

		name, err := cleanName(hdr.Name)
		if err != nil {
			return nil, err
		}
		if name == "." {
			continue
		}

		return &Entry{
			Name:     name,
			IsDir:    isDir,
			Mode:     mode | fs.FileMode(hdr.Mode).Perm(),
			Linkname: hdr.Linkname,
			open: func() (io.ReadCloser, error) {
				return io.NopCloser(&checkedReader{rc: io.NopCloser(r.tr), path: r.path}), nil
			},
		}, nil
	}
}

func (r *tarGzReader) Close() error {
	r.gz.Close()
	return r.f.Close()
}
