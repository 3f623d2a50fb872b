// Package bundle packs a source directory into an archive suitable for a
// JobSpec's SourceBundle & ships it to object storage.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oarlock/ferry/pkg/errors"
)

// Pack tars & gzips every regular file under dir. Entries are ordered and
// stripped of timestamps & ownership, so the same tree always produces the
// same bytes.
func Pack(dir string) ([]byte, error) {
	files := []string{}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	tw := tar.NewWriter(gz)

	for _, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		err = tw.WriteHeader(&tar.Header{
			Name: filepath.ToSlash(rel),
			Mode: 0644,
			Size: int64(len(data)),
		})
		if err != nil {
			return nil, err
		}
		if _, err := tw.Write(data); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unpack extracts an archive produced by Pack into dir.
func Unpack(data []byte, dir string) error {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		path := filepath.Join(dir, filepath.FromSlash(hdr.Name))
		if !strings.HasPrefix(path, filepath.Clean(dir)+string(os.PathSeparator)) {
			return fmt.Errorf("%w entry %s escapes target dir", errors.ErrInvalidArg, hdr.Name)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return err
		}

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode))
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
}

// ParseRef splits an s3://bucket/key reference.
func ParseRef(ref string) (bucket, key string, err error) {
	const scheme = "s3://"
	if !strings.HasPrefix(ref, scheme) {
		return "", "", fmt.Errorf("%w ref %s is not an s3 uri", errors.ErrInvalidArg, ref)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(ref, scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w ref %s needs a bucket and a key", errors.ErrInvalidArg, ref)
	}
	return bucket, key, nil
}
