//go:build tools
// +build tools

// Package relaychat declares tool dependencies for this module. mockgen is
// pinned here and run through `go generate`.
package relaychat

import (
	_ "go.uber.org/mock/mockgen"
)
