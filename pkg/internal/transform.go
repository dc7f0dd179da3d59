package internal

import (
	"regexp"
	"strings"

	"github.com/Masterminds/sprig/v3"

	"github.com/AidanDelaney/dsscaffold/pkg/layout"
)

const (
	TokenName    = "name"
	TokenSource  = "src"
	TokenPackage = "package"
	TokenAuthor  = "author"
	TokenEmail   = "email"

	// ReportsFolder is the folder that receives the generated report file.
	ReportsFolder = "reports"
)

// Both {{token}} and ${token} are recognised. Only the double brace form
// accepts filters: {{name | upper}}.
var tokenPattern = regexp.MustCompile(
	`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*((?:\|\s*[A-Za-z_][A-Za-z0-9_]*\s*)*)\}\}|\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// filters are the single string argument functions of the sprig function map.
var filters = stringFilters()

func stringFilters() map[string]func(string) string {
	out := map[string]func(string) string{}
	for name, fn := range sprig.TxtFuncMap() {
		if f, ok := fn.(func(string) string); ok {
			out[name] = f
		}
	}
	return out
}

// Tokens maps token names to their replacement.
type Tokens map[string]string

// Substitute replaces every known token in data. Unknown tokens, and tokens
// with an unknown filter, are left verbatim.
func Substitute(data string, vars Tokens) string {
	if !strings.Contains(data, "{{") && !strings.Contains(data, "${") {
		return data
	}
	return tokenPattern.ReplaceAllStringFunc(data, func(match string) string {
		groups := tokenPattern.FindStringSubmatch(match)
		if groups[3] != "" {
			if value, ok := vars[groups[3]]; ok {
				return value
			}
			return match
		}

		value, ok := vars[groups[1]]
		if !ok {
			return match
		}
		for _, name := range strings.Split(groups[2], "|") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			filter, ok := filters[name]
			if !ok {
				return match
			}
			value = filter(value)
		}
		return value
	})
}

// PackageName derives the source package name from a project name.
func PackageName(project string) string {
	return strings.ReplaceAll(project, "-", "_")
}

// Values are the inputs of Personalize.
type Values struct {
	Name string
	// Author and Email resolve their tokens even when empty.
	Author string
	Email  string
	// ReportFile is added to every reports folder. Empty disables it.
	ReportFile string
}

// contentTokens apply to file names and file contents.
func (v Values) contentTokens() Tokens {
	return Tokens{
		TokenName:    v.Name,
		TokenPackage: PackageName(v.Name),
		TokenAuthor:  v.Author,
		TokenEmail:   v.Email,
	}
}

// folderTokens apply to folder names. Only folder names resolve the source
// folder marker.
func (v Values) folderTokens() Tokens {
	tokens := v.contentTokens()
	tokens[TokenSource] = PackageName(v.Name)
	return tokens
}

// Personalize returns a copy of tree with every token resolved and the
// report file added to reports folders. tree is not modified.
func Personalize(tree layout.Folder, v Values) layout.Folder {
	return personalize(tree, v, v.folderTokens(), v.contentTokens())
}

func personalize(f layout.Folder, v Values, folderTokens, contentTokens Tokens) layout.Folder {
	out := layout.Folder{Name: Substitute(f.Name, folderTokens)}

	if f.Subfolders != nil {
		out.Subfolders = make([]layout.Folder, 0, len(f.Subfolders))
		for _, sub := range f.Subfolders {
			out.Subfolders = append(out.Subfolders, personalize(sub, v, folderTokens, contentTokens))
		}
	}

	if f.Files != nil {
		out.Files = make([]layout.FileTemplate, 0, len(f.Files)+1)
		for _, file := range f.Files {
			out.Files = append(out.Files, layout.FileTemplate{
				Filename: Substitute(file.Filename, contentTokens),
				Content:  Substitute(file.Content, contentTokens),
			})
		}
	}

	if v.ReportFile != "" && out.Name == ReportsFolder && !out.HasFile(v.ReportFile) {
		out.Files = append(out.Files, layout.FileTemplate{Filename: v.ReportFile})
	}
	return out
}
