package dsscaffold

import (
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"

	"github.com/AidanDelaney/dsscaffold/pkg/layout"
)

// ResolveTemplate picks the named template from the sources found in the
// configuration filesystem. The default template is returned for
// layout.DefaultName, and also, with a warning, when the name is not found.
// Malformed template sources are an error.
func ResolveTemplate(config billy.Filesystem, name string, logger *log.Logger) (layout.Folder, error) {
	if name == "" || name == layout.DefaultName {
		logger.Info("using default template")
		return layout.Default(), nil
	}

	src, err := layout.Discover(config)
	if err != nil {
		return layout.Folder{}, err
	}

	tree, err := src.Lookup(name)
	if err != nil {
		if !errors.Is(err, layout.ErrTemplateNotFound) {
			return layout.Folder{}, err
		}
		logger.Warn("template not found", "template", name, "root", config.Root())
		logger.Info("found templates", "templates", src.Names())
		logger.Info("using default template")
		return layout.Default(), nil
	}

	logger.Info("using template", "template", name, "origin", src.Origin(name))
	return tree, nil
}

// ListTemplates returns the default template name followed by the names of
// every template found in the configuration filesystem.
func ListTemplates(config billy.Filesystem) ([]string, error) {
	src, err := layout.Discover(config)
	if err != nil {
		return nil, err
	}
	names := []string{layout.DefaultName}
	for _, name := range src.Names() {
		if name != layout.DefaultName {
			names = append(names, name)
		}
	}
	return names, nil
}
