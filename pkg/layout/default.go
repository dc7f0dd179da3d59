package layout

// DefaultName is the name under which the built-in template is selected.
const DefaultName = "default"

const readmeTemplate = `# {{name}}

.
├── Makefile
├── README.md
├── data
│   ├── final
│   ├── processed
│   ├── raw
│   └── sim
├── dev
│   ├── notebooks
│   └── scripts
├── docs
├── pyproject.toml
├── references
├── reports
│   └── img
├── tests
└── {{package}}
    ├── __init__.py
    └── main.py
`

const makefileTemplate = `
.PHONY: install test lint format

install:
	pdm install

test:
	pdm run pytest

lint:
	pdm run ruff {{package}}
	pdm run mypy {{package}}

format:
	pdm run isort -v {{package}}
	pdm run black {{package}}
`

const pyprojectTemplate = `
[project]
name = "{{name}}"
version = "0.1.0"
description = ""
authors = [
	{name = "{{author}}", email = "{{email}}"},
]
dependencies = [
]
requires-python = ">=3.9"
readme = "README.md"
license = {text = "MIT"}

[project.optional-dependencies]
lint = [
	"ruff>=0.0.278",
	"black>=23.7.0",
	"isort>=5.12.0",
	"mypy>=1.4.1",
]

[build-system]
requires = ["pdm-backend"]
build-backend = "pdm.backend"
`

// Default returns the built-in data science project template. Every call
// builds a new tree, so callers are free to modify the result.
func Default() Folder {
	return Folder{
		Name: "{{name}}",
		Subfolders: []Folder{
			{
				Name: "{{src}}",
				Files: []FileTemplate{
					{Filename: "__init__.py"},
					{Filename: "main.py"},
				},
			},
			{
				Name: "dev",
				Subfolders: []Folder{
					{Name: "scripts", Files: []FileTemplate{{Filename: "main.py"}}},
					{Name: "notebooks"},
				},
			},
			{
				Name: "data",
				Subfolders: []Folder{
					{Name: "raw"},
					{Name: "processed"},
					{Name: "sim"},
					{Name: "final"},
				},
			},
			{Name: "docs"},
			{Name: "references"},
			{Name: "reports", Subfolders: []Folder{{Name: "img"}}},
			{Name: "tests"},
		},
		Files: []FileTemplate{
			{Filename: "README.md", Content: readmeTemplate},
			{Filename: "Makefile", Content: makefileTemplate},
			{Filename: "pyproject.toml", Content: pyprojectTemplate},
		},
	}
}
