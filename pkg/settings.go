package dsscaffold

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/AidanDelaney/dsscaffold/pkg/internal"
	"github.com/AidanDelaney/dsscaffold/pkg/layout"
)

const (
	// AppName names the configuration directory.
	AppName = "dsscaffold"
	// DefaultCommitMessage is the message of the initial commit.
	DefaultCommitMessage = internal.DefaultCommitMessage
)

// ReportKind selects the report file added to the reports folder.
type ReportKind string

const (
	ReportLatex    ReportKind = "latex"
	ReportMarkdown ReportKind = "markdown"
	ReportSlides   ReportKind = "slides"
	ReportNotebook ReportKind = "notebook"
)

var reportExtensions = map[ReportKind]string{
	ReportLatex:    "tex",
	ReportMarkdown: "md",
	ReportSlides:   "pptx",
	ReportNotebook: "qmd",
}

// ReportKinds lists every supported kind.
var ReportKinds = []ReportKind{ReportLatex, ReportMarkdown, ReportSlides, ReportNotebook}

// Extension returns the file extension of the report, without the dot.
func (k ReportKind) Extension() string {
	return reportExtensions[k]
}

// Filename returns the name of the report file.
func (k ReportKind) Filename() string {
	return "report." + k.Extension()
}

func (k ReportKind) String() string {
	return string(k)
}

// ParseReportKind accepts a kind name or its extension, in any case.
func ParseReportKind(s string) (ReportKind, error) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	for _, kind := range ReportKinds {
		if s == string(kind) || s == kind.Extension() {
			return kind, nil
		}
	}
	return "", errors.WithHint(
		errors.Mark(errors.Newf("unknown report kind %q", s), ErrInvalidSettings),
		"choose one of tex, md, pptx or qmd")
}

// Settings is the resolved configuration of one generation run.
type Settings struct {
	Name            string        `validate:"required,segment"`
	Destination     string        `validate:"required"`
	Template        layout.Folder `validate:"-"`
	VersionControl  bool
	ReportKind      ReportKind `validate:"required,oneof=latex markdown slides notebook"`
	Force           bool
	ConfigDirectory string
	Author          string
	Email           string `validate:"omitempty,email"`
	CommitMessage   string
}

type Option func(*Settings)

func WithDestination(path string) Option {
	return func(s *Settings) {
		s.Destination = path
	}
}

func WithTemplate(tree layout.Folder) Option {
	return func(s *Settings) {
		s.Template = tree
	}
}

func WithVersionControl(enabled bool) Option {
	return func(s *Settings) {
		s.VersionControl = enabled
	}
}

func WithReportKind(kind ReportKind) Option {
	return func(s *Settings) {
		s.ReportKind = kind
	}
}

func WithForce(force bool) Option {
	return func(s *Settings) {
		s.Force = force
	}
}

func WithConfigDirectory(dir string) Option {
	return func(s *Settings) {
		s.ConfigDirectory = dir
	}
}

func WithAuthor(name, email string) Option {
	return func(s *Settings) {
		s.Author = name
		s.Email = email
	}
}

func WithCommitMessage(msg string) Option {
	return func(s *Settings) {
		s.CommitMessage = msg
	}
}

// DefaultConfigDirectory is $XDG_CONFIG_HOME/dsscaffold.
func DefaultConfigDirectory() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// NewSettings creates settings for the project name with the given options
// applied over the defaults.
func NewSettings(name string, opts ...Option) Settings {
	s := Settings{
		Name:            name,
		Destination:     ".",
		Template:        layout.Default(),
		VersionControl:  true,
		ReportKind:      ReportMarkdown,
		ConfigDirectory: DefaultConfigDirectory(),
		CommitMessage:   DefaultCommitMessage,
	}

	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// PackageName is the project name with hyphens replaced by underscores.
func (s Settings) PackageName() string {
	return internal.PackageName(s.Name)
}

// Validate checks the settings and the template they carry.
func (s Settings) Validate() error {
	if err := layout.Validator().Struct(s); err != nil {
		wrapped := errors.Mark(errors.Wrap(err, "settings"), ErrInvalidSettings)
		for _, hint := range fieldHints(err) {
			wrapped = errors.WithHint(wrapped, hint)
		}
		return wrapped
	}
	if err := s.Template.Validate(); err != nil {
		return errors.Mark(err, ErrInvalidSettings)
	}
	return nil
}

var settingsHints = map[string]string{
	"Name":        "the project name must be usable as a single folder name",
	"Destination": "set the folder to create the project in with --path",
	"ReportKind":  "choose one of tex, md, pptx or qmd",
	"Email":       "the author email must be a valid address such as ada@example.com",
}

// fieldHints returns one hint per failing settings field.
func fieldHints(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	var hints []string
	seen := map[string]bool{}
	for _, fe := range verrs {
		hint, ok := settingsHints[fe.Field()]
		if !ok || seen[hint] {
			continue
		}
		seen[hint] = true
		hints = append(hints, hint)
	}
	return hints
}
