// Package layout describes project templates: a tree of folders and files
// whose names and contents may carry placeholder tokens.
package layout

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidTemplate   = errors.New("invalid template")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrBinaryTemplate    = errors.New("binary files are not supported in templates")
	ErrUnsupportedFormat = errors.New("unsupported template file format")
)

// FileTemplate is a single file to be written. Content may contain tokens.
type FileTemplate struct {
	Filename string `toml:"filename" yaml:"filename" validate:"required,segment"`
	Content  string `toml:"content" yaml:"content"`
}

// Folder is a directory node. A folder without subfolders and files is a
// valid leaf and is materialized with a marker file.
type Folder struct {
	Name       string         `toml:"name" yaml:"name" validate:"required,segment"`
	Subfolders []Folder       `toml:"subfolders,omitempty" yaml:"subfolders,omitempty" validate:"dive"`
	Files      []FileTemplate `toml:"files,omitempty" yaml:"files,omitempty" validate:"dive"`
}

// IsEmpty reports whether the folder has neither files nor subfolders.
func (f Folder) IsEmpty() bool {
	return len(f.Subfolders) == 0 && len(f.Files) == 0
}

// HasFile reports whether the folder directly contains a file with the given name.
func (f Folder) HasFile(name string) bool {
	for _, file := range f.Files {
		if file.Filename == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the tree. Modifying the copy never affects f.
func (f Folder) Clone() Folder {
	out := Folder{Name: f.Name}
	if f.Files != nil {
		out.Files = make([]FileTemplate, len(f.Files))
		copy(out.Files, f.Files)
	}
	if f.Subfolders != nil {
		out.Subfolders = make([]Folder, len(f.Subfolders))
		for i, sub := range f.Subfolders {
			out.Subfolders[i] = sub.Clone()
		}
	}
	return out
}

// Walk visits every folder in the tree depth-first, pre-order. The path
// passed to fn is the slash separated list of folder names from the root,
// including the folder itself.
func (f Folder) Walk(fn func(path string, folder Folder) error) error {
	return f.walk("", fn)
}

func (f Folder) walk(parent string, fn func(string, Folder) error) error {
	path := f.Name
	if parent != "" {
		path = parent + "/" + f.Name
	}
	if err := fn(path, f); err != nil {
		return err
	}
	for _, sub := range f.Subfolders {
		if err := sub.walk(path, fn); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that every folder and file name in the tree is a single
// path segment and that no folder holds two entries with the same name.
func (f Folder) Validate() error {
	if err := Validator().Struct(f); err != nil {
		return errors.Mark(errors.Wrapf(err, "template %q", f.Name), ErrInvalidTemplate)
	}
	return f.Walk(func(path string, folder Folder) error {
		seen := make(map[string]struct{}, len(folder.Files)+len(folder.Subfolders))
		for _, sub := range folder.Subfolders {
			if _, ok := seen[sub.Name]; ok {
				return errors.Mark(errors.Newf("%s: duplicate entry %q", path, sub.Name), ErrInvalidTemplate)
			}
			seen[sub.Name] = struct{}{}
		}
		for _, file := range folder.Files {
			if _, ok := seen[file.Filename]; ok {
				return errors.Mark(errors.Newf("%s: duplicate entry %q", path, file.Filename), ErrInvalidTemplate)
			}
			seen[file.Filename] = struct{}{}
		}
		return nil
	})
}

// IsSegment reports whether name can be used as a single directory entry.
func IsSegment(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

var (
	validateOnce sync.Once
	validatorV   *validator.Validate
)

// Validator returns the shared validator with the "segment" rule registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validatorV = validator.New(validator.WithRequiredStructEnabled())
		_ = validatorV.RegisterValidation("segment", func(fl validator.FieldLevel) bool {
			return IsSegment(fl.Field().String())
		})
	})
	return validatorV
}
