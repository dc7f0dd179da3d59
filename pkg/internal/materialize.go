package internal

import (
	"os"
	"path"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"

	"github.com/AidanDelaney/dsscaffold/pkg/layout"
)

const (
	DirMode  os.FileMode = 0o755
	FileMode os.FileMode = 0o644
)

// ErrFilesystem marks every failure to create a folder or write a file.
var ErrFilesystem = errors.New("filesystem error")

// Stats counts what Materialize created.
type Stats struct {
	Folders int
	Files   int
}

// Materializer writes personalized trees through a billy filesystem.
type Materializer struct {
	fs     billy.Filesystem
	logger *log.Logger
}

func NewMaterializer(fs billy.Filesystem, logger *log.Logger) *Materializer {
	return &Materializer{fs: fs, logger: logger}
}

// Materialize creates folder (and everything under it) inside base. Existing
// folders are reused and existing files are overwritten. An empty folder
// gets a single marker file.
func (m *Materializer) Materialize(base string, folder layout.Folder) (Stats, error) {
	stats := Stats{}
	err := m.add(base, folder, &stats)
	return stats, err
}

func (m *Materializer) add(base string, folder layout.Folder, stats *Stats) error {
	dir := path.Join(base, folder.Name)
	if err := m.fs.MkdirAll(dir, DirMode); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to create folder %s", dir), ErrFilesystem)
	}
	stats.Folders++
	m.logger.Debug("create", "folder", dir)

	for _, sub := range folder.Subfolders {
		if err := m.add(dir, sub, stats); err != nil {
			return err
		}
	}

	for _, file := range folder.Files {
		if err := m.write(path.Join(dir, file.Filename), file.Content); err != nil {
			return err
		}
		stats.Files++
	}

	if folder.IsEmpty() {
		if err := m.write(path.Join(dir, layout.MarkerFile), ""); err != nil {
			return err
		}
		stats.Files++
	}
	return nil
}

func (m *Materializer) write(name string, content string) error {
	file, err := m.fs.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FileMode)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to create file %s", name), ErrFilesystem)
	}
	defer file.Close()

	if n, err := file.Write([]byte(content)); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to write data to file %s (%d bytes)", name, n), ErrFilesystem)
	}
	m.logger.Debug("create", "file", name)
	return nil
}

// IsEmptyDir reports whether dir is missing, not a directory, or a directory
// without entries. Only the directory itself is inspected.
func IsEmptyDir(fs billy.Filesystem, dir string) (bool, []string, error) {
	info, err := fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil, nil
		}
		return false, nil, errors.Mark(errors.Wrapf(err, "cannot stat %s", dir), ErrFilesystem)
	}
	if !info.IsDir() {
		return true, nil, nil
	}
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return false, nil, errors.Mark(errors.Wrapf(err, "cannot read %s", dir), ErrFilesystem)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return len(names) == 0, names, nil
}
