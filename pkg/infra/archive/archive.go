package archive

import (
	"archive/tar"
	"context"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/m-mizutani/githook/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/zeebo/blake3"
)

// Packager writes gzipped tarballs of a working tree
type Packager struct {
	level int
}

// Option is a functional option for Packager configuration
type Option func(*Packager)

// WithLevel sets the gzip compression level
func WithLevel(level int) Option {
	return func(p *Packager) {
		p.level = level
	}
}

// NewPackager creates a new Packager
func NewPackager(opts ...Option) *Packager {
	p := &Packager{level: gzip.DefaultCompression}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pack archives the contents of srcDir into dstFile, paths relative to
// srcDir and prefixed with "./". dstFile itself is skipped when it lives
// inside srcDir. It returns the BLAKE3 hex digest of the archive.
func (p *Packager) Pack(ctx context.Context, srcDir, dstFile string) (string, error) {
	logger := logging.From(ctx)

	if err := os.MkdirAll(filepath.Dir(dstFile), 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create archive directory", goerr.V("path", dstFile))
	}

	out, err := os.Create(filepath.Clean(dstFile))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create archive", goerr.V("path", dstFile))
	}
	defer out.Close()

	hasher := blake3.New()
	gz, err := gzip.NewWriterLevel(io.MultiWriter(out, hasher), p.level)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create gzip writer")
	}
	tw := tar.NewWriter(gz)

	absDst, err := filepath.Abs(dstFile)
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve archive path", goerr.V("path", dstFile))
	}

	var count int
	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if abs, err := filepath.Abs(path); err == nil && abs == absDst {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if err := addEntry(tw, path, rel, d); err != nil {
			return err
		}
		count++
		return nil
	})
	if walkErr != nil {
		return "", goerr.Wrap(walkErr, "failed to archive directory", goerr.V("src", srcDir))
	}

	if err := tw.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to close tar writer")
	}
	if err := gz.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to close gzip writer")
	}
	if err := out.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to close archive", goerr.V("path", dstFile))
	}

	checksum := hex.EncodeToString(hasher.Sum(nil))
	logger.Debug("Packed directory",
		"src", srcDir,
		"dst", dstFile,
		"entries", count,
		"blake3", checksum,
	)
	return checksum, nil
}

func addEntry(tw *tar.Writer, path, rel string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = "./" + filepath.ToSlash(rel)
	if rel == "." {
		hdr.Name = "./"
	} else if info.IsDir() {
		hdr.Name += "/"
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}
