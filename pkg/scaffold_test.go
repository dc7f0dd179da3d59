package dsscaffold_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dsscaffold "github.com/AidanDelaney/dsscaffold/pkg"
	"github.com/AidanDelaney/dsscaffold/pkg/layout"
)

func TestGenerator(t *testing.T) {
	spec.Run(t, "Generator", testGenerator, spec.Report(report.Terminal{}))
}

func listDir(t *testing.T, fs billy.Filesystem, dir string) []string {
	t.Helper()
	infos, err := fs.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names
}

func readFile(t *testing.T, fs billy.Filesystem, name string) string {
	t.Helper()
	data, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

// snapshot maps every file below root to its content.
func snapshot(t *testing.T, fs billy.Filesystem, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	var walk func(dir string)
	walk = func(dir string) {
		infos, err := fs.ReadDir(dir)
		require.NoError(t, err)
		for _, info := range infos {
			name := filepath.Join(dir, info.Name())
			if info.IsDir() {
				walk(name)
				continue
			}
			out[name] = readFile(t, fs, name)
		}
	}
	walk(root)
	return out
}

func testGenerator(t *testing.T, when spec.G, it spec.S) {
	var (
		fs        billy.Filesystem
		generator *dsscaffold.Generator
		ctx       context.Context
	)

	it.Before(func() {
		fs = memfs.New()
		generator = dsscaffold.NewGenerator(
			dsscaffold.WithFilesystem(fs),
			dsscaffold.WithLogger(log.New(io.Discard)),
		)
		ctx = context.Background()
	})

	when("generating the default template", func() {
		var settings dsscaffold.Settings

		it.Before(func() {
			settings = dsscaffold.NewSettings("my-project",
				dsscaffold.WithDestination("/tmp/x"),
				dsscaffold.WithForce(true),
				dsscaffold.WithVersionControl(false),
			)
		})

		it("creates the project layout", func() {
			res, err := generator.Generate(ctx, settings)
			require.NoError(t, err)
			assert.Equal(t, "my-project", res.Root)
			assert.Empty(t, res.Commit)

			assert.Equal(t, []string{
				"Makefile", "README.md", "data", "dev", "docs", "my_project",
				"pyproject.toml", "references", "reports", "tests",
			}, listDir(t, fs, "my-project"))
			assert.Equal(t, []string{"__init__.py", "main.py"}, listDir(t, fs, "my-project/my_project"))
			assert.Equal(t, []string{layout.MarkerFile}, listDir(t, fs, "my-project/tests"))
			assert.Equal(t, []string{"final", "processed", "raw", "sim"}, listDir(t, fs, "my-project/data"))
		})

		it("substitutes the project name into file contents", func() {
			_, err := generator.Generate(ctx, settings)
			require.NoError(t, err)

			readme := readFile(t, fs, "my-project/README.md")
			assert.Contains(t, readme, "# my-project")
			assert.Contains(t, readme, "my_project")
			assert.NotContains(t, readme, "{{name}}")

			assert.Contains(t, readFile(t, fs, "my-project/Makefile"), "pdm run ruff my_project")
			assert.Contains(t, readFile(t, fs, "my-project/pyproject.toml"), `name = "my-project"`)
		})

		it("adds the report file to the reports folder", func() {
			_, err := generator.Generate(ctx, settings)
			require.NoError(t, err)

			assert.Equal(t, []string{"img", "report.md"}, listDir(t, fs, "my-project/reports"))
			assert.Equal(t, "", readFile(t, fs, "my-project/reports/report.md"))
		})

		it("uses the configured report kind", func() {
			dsscaffold.WithReportKind(dsscaffold.ReportNotebook)(&settings)

			_, err := generator.Generate(ctx, settings)
			require.NoError(t, err)

			assert.Equal(t, []string{"img", "report.qmd"}, listDir(t, fs, "my-project/reports"))
		})

		it("resolves author tokens when configured", func() {
			dsscaffold.WithAuthor("Ada", "ada@example.com")(&settings)

			_, err := generator.Generate(ctx, settings)
			require.NoError(t, err)

			assert.Contains(t, readFile(t, fs, "my-project/pyproject.toml"), `{name = "Ada", email = "ada@example.com"}`)
		})

		it("leaves no tokens in the project metadata without an author", func() {
			_, err := generator.Generate(ctx, settings)
			require.NoError(t, err)

			pyproject := readFile(t, fs, "my-project/pyproject.toml")
			assert.NotContains(t, pyproject, "{{")
			assert.Contains(t, pyproject, `authors = [`)
		})

		it("is idempotent with force", func() {
			_, err := generator.Generate(ctx, settings)
			require.NoError(t, err)
			first := snapshot(t, fs, "my-project")

			_, err = generator.Generate(ctx, settings)
			require.NoError(t, err)

			assert.Equal(t, first, snapshot(t, fs, "my-project"))
		})

		it("does not modify the template in the settings", func() {
			_, err := generator.Generate(ctx, settings)
			require.NoError(t, err)

			assert.Equal(t, layout.Default(), settings.Template)
		})
	})

	when("the project folder already has entries", func() {
		var settings dsscaffold.Settings

		it.Before(func() {
			require.NoError(t, util.WriteFile(fs, "my_project/existing_file.txt", []byte("keep me"), 0o644))
			settings = dsscaffold.NewSettings("my_project", dsscaffold.WithVersionControl(false))
		})

		it("fails before writing anything", func() {
			_, err := generator.Generate(ctx, settings)
			require.Error(t, err)
			assert.True(t, errors.Is(err, dsscaffold.ErrDestinationNotEmpty), "got %v", err)
			assert.Contains(t, errors.GetAllHints(err), "make sure the path is empty or use --force")

			assert.Equal(t, []string{"existing_file.txt"}, listDir(t, fs, "my_project"))
			assert.Equal(t, "keep me", readFile(t, fs, "my_project/existing_file.txt"))
		})

		it("writes into it with force and keeps unrelated files", func() {
			dsscaffold.WithForce(true)(&settings)

			_, err := generator.Generate(ctx, settings)
			require.NoError(t, err)

			assert.Contains(t, listDir(t, fs, "my_project"), "existing_file.txt")
			assert.Contains(t, listDir(t, fs, "my_project"), "my_project")
			assert.Equal(t, []string{"__init__.py", "main.py"}, listDir(t, fs, "my_project/my_project"))
		})
	})

	when("the project folder exists but is empty", func() {
		it("generates without force", func() {
			require.NoError(t, fs.MkdirAll("my_project", 0o755))

			_, err := generator.Generate(ctx, dsscaffold.NewSettings("my_project", dsscaffold.WithVersionControl(false)))
			require.NoError(t, err)
			assert.Contains(t, listDir(t, fs, "my_project"), "README.md")
		})
	})

	when("using a custom template", func() {
		it("materializes it", func() {
			tree := layout.Folder{
				Name: "{{name}}",
				Subfolders: []layout.Folder{
					{Name: "{{src}}", Files: []layout.FileTemplate{{Filename: "__init__.py"}}},
					{Name: "tests"},
				},
				Files: []layout.FileTemplate{{Filename: "README.md", Content: "${name}"}},
			}
			settings := dsscaffold.NewSettings("my-project",
				dsscaffold.WithTemplate(tree),
				dsscaffold.WithVersionControl(false),
			)

			res, err := generator.Generate(ctx, settings)
			require.NoError(t, err)
			assert.Equal(t, 3, res.Folders)
			assert.Equal(t, 3, res.Files)

			assert.Equal(t, []string{"README.md", "my_project", "tests"}, listDir(t, fs, "my-project"))
			assert.Equal(t, "my-project", readFile(t, fs, "my-project/README.md"))
		})
	})

	when("version control is enabled", func() {
		it("commits the generated files once", func() {
			settings := dsscaffold.NewSettings("my-project", dsscaffold.WithAuthor("Ada", "ada@example.com"))

			res, err := generator.Generate(ctx, settings)
			require.NoError(t, err)
			require.NotEmpty(t, res.Commit)

			assert.Contains(t, listDir(t, fs, "my-project"), git.GitDirName)
		})

		it("keeps the existing commit when regenerating with force", func() {
			settings := dsscaffold.NewSettings("my-project",
				dsscaffold.WithAuthor("Ada", "ada@example.com"),
				dsscaffold.WithForce(true),
			)

			first, err := generator.Generate(ctx, settings)
			require.NoError(t, err)

			again, err := generator.Generate(ctx, settings)
			require.NoError(t, err)
			assert.Equal(t, first.Commit, again.Commit)
		})

		it("commits files added since the last generation", func() {
			settings := dsscaffold.NewSettings("my-project",
				dsscaffold.WithAuthor("Ada", "ada@example.com"),
				dsscaffold.WithForce(true),
			)

			first, err := generator.Generate(ctx, settings)
			require.NoError(t, err)

			dsscaffold.WithReportKind(dsscaffold.ReportLatex)(&settings)
			again, err := generator.Generate(ctx, settings)
			require.NoError(t, err)
			assert.NotEqual(t, first.Commit, again.Commit)
			assert.Equal(t, []string{"img", "report.md", "report.tex"}, listDir(t, fs, "my-project/reports"))
		})

		it("fails on an existing repository without force", func() {
			settings := dsscaffold.NewSettings("my-project", dsscaffold.WithAuthor("Ada", "ada@example.com"))

			_, err := generator.Generate(ctx, settings)
			require.NoError(t, err)

			_, err = generator.Generate(ctx, settings)
			assert.True(t, errors.Is(err, dsscaffold.ErrDestinationNotEmpty), "got %v", err)
		})
	})

	when("the settings are invalid", func() {
		it("rejects a project name with a separator", func() {
			_, err := generator.Generate(ctx, dsscaffold.NewSettings("a/b", dsscaffold.WithVersionControl(false)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, dsscaffold.ErrInvalidSettings), "got %v", err)
			_, err = fs.Stat("a")
			assert.True(t, os.IsNotExist(err))
		})

		it("rejects an invalid template", func() {
			settings := dsscaffold.NewSettings("p",
				dsscaffold.WithTemplate(layout.Folder{Name: "{{name}}", Files: []layout.FileTemplate{{Filename: ""}}}),
				dsscaffold.WithVersionControl(false),
			)

			_, err := generator.Generate(ctx, settings)
			assert.True(t, errors.Is(err, dsscaffold.ErrInvalidSettings), "got %v", err)
		})

		it("rejects an unknown report kind", func() {
			settings := dsscaffold.NewSettings("p", dsscaffold.WithReportKind("docx"))

			_, err := generator.Generate(ctx, settings)
			assert.True(t, errors.Is(err, dsscaffold.ErrInvalidSettings), "got %v", err)
		})
	})

	when("the context is cancelled", func() {
		it("writes nothing", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := generator.Generate(cancelled, dsscaffold.NewSettings("p"))
			assert.ErrorIs(t, err, context.Canceled)
			_, err = fs.Stat("p")
			assert.True(t, os.IsNotExist(err))
		})
	})
}

func TestGenerateOnHostFilesystem(t *testing.T) {
	dest := t.TempDir()
	settings := dsscaffold.NewSettings("my-project",
		dsscaffold.WithDestination(dest),
		dsscaffold.WithAuthor("Ada", "ada@example.com"),
	)

	res, err := dsscaffold.NewGenerator(dsscaffold.WithLogger(log.New(io.Discard))).Generate(context.Background(), settings)
	require.NoError(t, err)

	root := filepath.Join(dest, "my-project")
	_, err = os.Stat(filepath.Join(root, "my_project", "main.py"))
	require.NoError(t, err)

	repo, err := git.PlainOpen(root)
	require.NoError(t, err)
	iter, err := repo.Log(&git.LogOptions{})
	require.NoError(t, err)

	var messages []string
	require.NoError(t, iter.ForEach(func(c *object.Commit) error {
		messages = append(messages, c.Message)
		return nil
	}))
	assert.Equal(t, []string{dsscaffold.DefaultCommitMessage}, messages)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, res.Commit, head.Hash().String())
}
