//go:build tools

// Package tools pins the development tools used by the Makefile.
package tools

import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
	_ "github.com/ory/go-acc"
	_ "golang.org/x/tools/cmd/goimports"
)
