// Package fixture builds SDKs for tests of subcommands.
package fixture

import (
	"context"
	"testing"

	"github.com/scc-digitalhub/digitalhub-go/pkg/client"
	"github.com/scc-digitalhub/digitalhub-go/pkg/client/local"
	"github.com/scc-digitalhub/digitalhub-go/pkg/logger"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/scc-digitalhub/digitalhub-go/pkg/store"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
)

// SDK talks to an in-memory backend in place of the platform.
func SDK(t *testing.T) *sdk.SDK {
	t.Helper()
	return WithBackend(t, local.New())
}

// WithBackend creates SDK talking to backend in place of the platform.
func WithBackend(t *testing.T, backend client.Client) *sdk.SDK {
	t.Helper()
	return try.To(sdk.New(
		sdk.WithClients(nil, backend),
		sdk.WithLogger(logger.Null()),
		sdk.WithStores(store.Default()),
		sdk.WithTmpDir(t.TempDir()),
	)).OrFatal(t)
}

// Project creates a project in s, having its context in a temporary directory.
func Project(t *testing.T, s *sdk.SDK, name string) *sdk.Project {
	t.Helper()
	return try.To(s.NewProject(
		context.Background(), name, sdk.ProjectOptions{Context: t.TempDir()},
	)).OrFatal(t)
}
