package layout

import (
	"bytes"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"
)

const (
	// TemplatesDir holds one directory based template per subdirectory.
	TemplatesDir = "templates"
	// MarkerFile is the placeholder written into empty folders.
	MarkerFile = ".gitkeep"
)

// TemplateFiles are the data files Discover looks for, in order.
var TemplateFiles = []string{"templates.toml", "templates.yaml", "templates.yml"}

type document struct {
	Templates map[string]Folder `toml:"templates" yaml:"templates"`
}

// Source is a set of named templates loaded from data files or directories.
type Source struct {
	templates map[string]Folder
	origins   map[string]string
}

func NewSource() *Source {
	return &Source{
		templates: map[string]Folder{},
		origins:   map[string]string{},
	}
}

// Add validates and registers a template. A later Add with the same name
// replaces the earlier one.
func (s *Source) Add(name string, tree Folder, origin string) error {
	if name == "" {
		return errors.Mark(errors.Newf("%s: template without a name", origin), ErrInvalidTemplate)
	}
	if err := tree.Validate(); err != nil {
		return errors.Wrapf(err, "%s: template %q", origin, name)
	}
	s.templates[name] = tree.Clone()
	s.origins[name] = origin
	return nil
}

// Lookup returns a copy of the named template.
func (s *Source) Lookup(name string) (Folder, error) {
	tree, ok := s.templates[name]
	if !ok {
		return Folder{}, errors.Mark(errors.Newf("template %q", name), ErrTemplateNotFound)
	}
	return tree.Clone(), nil
}

// Origin returns the file or directory a template was loaded from.
func (s *Source) Origin(name string) string {
	return s.origins[name]
}

// Names returns the registered template names in sorted order.
func (s *Source) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Source) Len() int {
	return len(s.templates)
}

// Discover loads every template found in the root of fs: the first of
// TemplateFiles that exists and each subdirectory of TemplatesDir. A missing
// file or directory is not an error.
func Discover(fs billy.Filesystem) (*Source, error) {
	src := NewSource()

	for _, name := range TemplateFiles {
		if _, err := fs.Stat(name); err != nil {
			continue
		}
		if err := src.loadFile(fs, name); err != nil {
			return nil, err
		}
		break
	}

	entries, err := fs.ReadDir(TemplatesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return src, nil
		}
		return nil, errors.Wrapf(err, "cannot read %s", TemplatesDir)
	}
	sortInfos(entries)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := path.Join(TemplatesDir, entry.Name())
		tree, err := LoadDir(fs, dir)
		if err != nil {
			return nil, err
		}
		if err := src.Add(entry.Name(), tree, dir); err != nil {
			return nil, err
		}
	}
	return src, nil
}

// LoadFile reads a TOML or YAML template file. The format is chosen by the
// file extension.
func LoadFile(fs billy.Filesystem, name string) (*Source, error) {
	src := NewSource()
	if err := src.loadFile(fs, name); err != nil {
		return nil, err
	}
	return src, nil
}

func (s *Source) loadFile(fs billy.Filesystem, name string) error {
	data, err := readFile(fs, name)
	if err != nil {
		return err
	}

	doc := document{}
	switch strings.ToLower(path.Ext(name)) {
	case ".toml":
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "%s file does not match required format", name), ErrInvalidTemplate)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.Mark(errors.Newf("%s contains unknown keys: %v", name, undecoded), ErrInvalidTemplate)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return errors.Mark(errors.Wrapf(err, "%s file does not match required format", name), ErrInvalidTemplate)
		}
	default:
		return errors.Mark(errors.Newf("%s", name), ErrUnsupportedFormat)
	}

	names := make([]string, 0, len(doc.Templates))
	for n := range doc.Templates {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := s.Add(n, doc.Templates[n], name); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir builds a template from a directory tree. The returned root folder
// is named "{{name}}" and holds the directory's contents. Marker files are
// skipped since empty folders get them regenerated.
func LoadDir(fs billy.Filesystem, dir string) (Folder, error) {
	root := Folder{Name: "{{name}}"}
	if err := loadDir(fs, dir, &root); err != nil {
		return Folder{}, err
	}
	return root, nil
}

func loadDir(fs billy.Filesystem, dir string, folder *Folder) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "cannot read template directory %s", dir)
	}
	sortInfos(entries)

	for _, entry := range entries {
		name := path.Join(dir, entry.Name())
		if entry.IsDir() {
			sub := Folder{Name: entry.Name()}
			if err := loadDir(fs, name, &sub); err != nil {
				return err
			}
			folder.Subfolders = append(folder.Subfolders, sub)
			continue
		}
		if entry.Name() == MarkerFile {
			continue
		}
		data, err := readFile(fs, name)
		if err != nil {
			return err
		}
		if !isText(data) {
			return errors.Mark(errors.Newf("%s", name), ErrBinaryTemplate)
		}
		folder.Files = append(folder.Files, FileTemplate{Filename: entry.Name(), Content: string(data)})
	}
	return nil
}

func isText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func readFile(fs billy.Filesystem, name string) ([]byte, error) {
	file, err := fs.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open file %s", name)
	}
	defer file.Close()

	buf, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read file %s", name)
	}
	return buf, nil
}

func sortInfos(infos []os.FileInfo) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
}
