package source

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// Tar fetches and unpacks a tarball, optionally verifying a declared
// checksum before unpacking. Remote archives are downloaded over HTTP with
// retries; local archive paths are read in place.
type Tar struct {
	spec Spec

	client *http.Client
}

var _ Source = &Tar{}

func NewTar(spec Spec) (*Tar, error) {
	if opts := refOptions(spec); len(opts) > 0 {
		return nil, &InvalidOptionError{SourceType: "tar", Option: opts[0]}
	}
	if spec.Depth != 0 {
		return nil, &InvalidOptionError{SourceType: "tar", Option: "source-depth"}
	}
	if spec.Submodules != nil {
		return nil, &InvalidOptionError{SourceType: "tar", Option: "source-submodules"}
	}
	if spec.Checksum != "" {
		if _, _, err := parseChecksum(spec.Checksum); err != nil {
			return nil, err
		}
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	return &Tar{spec: spec, client: rc.StandardClient()}, nil
}

func (t *Tar) Pull(ctx context.Context) (Details, error) {
	archive, cleanup, err := t.fetch(ctx)
	if err != nil {
		return Details{}, err
	}
	defer cleanup()

	if t.spec.Checksum != "" {
		if err := verifyChecksum(archive, t.spec.Checksum); err != nil {
			return Details{}, err
		}
	}

	if err := unpack(archive, t.spec.Dir); err != nil {
		return Details{}, fmt.Errorf("unpacking %s: %w", t.spec.Source, err)
	}

	return Details{Source: t.spec.Source, Checksum: t.spec.Checksum}, nil
}

// fetch returns a path to the archive on local disk, downloading first when
// the source is a URL.
func (t *Tar) fetch(ctx context.Context) (path string, cleanup func(), err error) {
	noop := func() {}
	if !strings.HasPrefix(t.spec.Source, "http://") && !strings.HasPrefix(t.spec.Source, "https://") {
		if _, err := os.Stat(t.spec.Source); err != nil {
			return "", noop, fmt.Errorf("archive source: %w", err)
		}
		return t.spec.Source, noop, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.spec.Source, nil)
	if err != nil {
		return "", noop, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", noop, fmt.Errorf("downloading %s: %w", t.spec.Source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", noop, fmt.Errorf("downloading %s: unexpected status %s", t.spec.Source, resp.Status)
	}

	f, err := os.CreateTemp("", "snapcraft-source-*"+filepath.Ext(t.spec.Source))
	if err != nil {
		return "", noop, err
	}
	cleanup = func() { os.Remove(f.Name()) }
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		cleanup()
		return "", noop, fmt.Errorf("downloading %s: %w", t.spec.Source, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", noop, err
	}
	return f.Name(), cleanup, nil
}

// parseChecksum splits "<algorithm>/<hex>" and returns the digest
// constructor for the algorithm.
func parseChecksum(checksum string) (func() hash.Hash, string, error) {
	algo, digest, ok := strings.Cut(checksum, "/")
	if !ok {
		return nil, "", &InvalidOptionError{SourceType: "tar", Option: "source-checksum"}
	}
	switch algo {
	case "sha256":
		return sha256.New, digest, nil
	case "sha384":
		return sha512.New384, digest, nil
	case "sha512":
		return sha512.New, digest, nil
	default:
		return nil, "", fmt.Errorf("unsupported checksum algorithm %q", algo)
	}
}

func verifyChecksum(path, checksum string) error {
	newHash, digest, err := parseChecksum(checksum)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if actual != digest {
		return &ChecksumMismatchError{Expected: digest, Actual: actual}
	}
	return nil
}

// unpack extracts the archive into dir, stripping the common top-level
// directory most release tarballs carry.
func unpack(path, dir string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".tgz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := stripTopLevel(hdr.Name)
		if name == "" {
			continue
		}
		target := filepath.Join(dir, name)
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(filepath.Separator)) {
			return fmt.Errorf("archive entry %q escapes target directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)|0o700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
				return err
			}
		}
	}
}

// stripTopLevel removes the first path component of an archive entry name.
func stripTopLevel(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	_, rest, ok := strings.Cut(name, "/")
	if !ok {
		return ""
	}
	return rest
}
