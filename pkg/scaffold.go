// Package dsscaffold creates new project layouts from folder templates.
// A template is a tree of folders and files whose names and contents carry
// {{name}} style tokens; generating a project personalizes the tree for the
// project name, writes it below the destination and optionally commits it to
// a fresh git repository.
package dsscaffold

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/AidanDelaney/dsscaffold/pkg/internal"
	"github.com/AidanDelaney/dsscaffold/pkg/layout"
)

// Result describes a generated project.
type Result struct {
	// Root is the project folder, relative to the destination filesystem.
	Root    string
	Folders int
	Files   int
	// Commit is the hash of the initial commit, empty without version control.
	Commit string
}

// Generator runs generations. The zero value is not usable; use NewGenerator.
type Generator struct {
	logger *log.Logger
	fs     billy.Filesystem
}

type GeneratorOption func(*Generator)

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *log.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithFilesystem makes the generator write into fs instead of the host
// filesystem. Settings.Destination is then ignored.
func WithFilesystem(fs billy.Filesystem) GeneratorOption {
	return func(g *Generator) {
		g.fs = fs
	}
}

// NewGenerator creates a Generator with the given options.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		logger: log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel}),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Generator) destination(s Settings) billy.Filesystem {
	if g.fs != nil {
		return g.fs
	}
	return osfs.New(s.Destination)
}

// Personalize returns the template of s with every token resolved and the
// report file added. An empty author or email resolves to an empty string.
// The template in s is left untouched.
func Personalize(s Settings) layout.Folder {
	return internal.Personalize(s.Template, internal.Values{
		Name:       s.Name,
		Author:     s.Author,
		Email:      s.Email,
		ReportFile: s.ReportKind.Filename(),
	})
}

// Generate creates the project described by s. Unless s.Force is set it
// refuses to write into a project folder that already has entries. With
// s.Force an existing repository in the project folder receives a new commit
// only when the generated files changed it. Author and email default to the
// global git configuration. There is no rollback: on error, whatever was
// written stays on disk.
func (g *Generator) Generate(ctx context.Context, s Settings) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	s.Author, s.Email = internal.Identity(s.Author, s.Email)

	tree := Personalize(s)
	if err := tree.Validate(); err != nil {
		return Result{}, errors.Mark(errors.Wrap(err, "personalized template"), ErrInvalidSettings)
	}
	root := tree.Name
	fs := g.destination(s)
	display := filepath.Join(s.Destination, root)

	if !s.Force {
		if err := checkEmpty(fs, root, display); err != nil {
			g.logger.Error("path is not empty", "path", display)
			return Result{}, err
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	g.logger.Info("creating folders from template", "path", display)
	stats, err := internal.NewMaterializer(fs, g.logger).Materialize("", tree)
	if err != nil {
		return Result{}, err
	}
	g.logger.Info("created project", "path", display, "folders", stats.Folders, "files", stats.Files)

	res := Result{Root: root, Folders: stats.Folders, Files: stats.Files}
	if !s.VersionControl {
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	g.logger.Info("initializing git repository", "path", display)
	hash, err := internal.InitRepositoryAt(fs, root, internal.CommitOptions{
		Message: s.CommitMessage,
		Author:  s.Author,
		Email:   s.Email,
		Reuse:   s.Force,
	})
	if err != nil {
		return res, errors.WithHint(err, "the generated files were kept; run git init manually or use --git=false")
	}
	res.Commit = hash
	g.logger.Info("committed template", "commit", hash)
	return res, nil
}

func checkEmpty(fs billy.Filesystem, root, display string) error {
	empty, entries, err := internal.IsEmptyDir(fs, root)
	if err != nil {
		return err
	}
	if empty {
		return nil
	}
	return errors.WithHint(
		errors.Mark(errors.Newf("path %s is not empty, found %s", display, strings.Join(entries, ", ")), ErrDestinationNotEmpty),
		"make sure the path is empty or use --force")
}
