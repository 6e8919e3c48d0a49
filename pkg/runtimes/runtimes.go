// Package runtimes bundles extensions of runtimes provided with the SDK.
package runtimes

import (
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry"
	"github.com/scc-digitalhub/digitalhub-go/pkg/registry/base"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtimes/container"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtimes/dbt"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtimes/kfp"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtimes/mlrun"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtimes/modelserve"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtimes/python"
)

// Default extensions: base kinds and every runtime.
func Default() []registry.Extension {
	return []registry.Extension{
		base.Extension,
		container.Extension,
		python.Extension,
		dbt.Extension,
		kfp.Extension,
		mlrun.Extension,
		modelserve.Extension,
	}
}

// Named extensions, for choosing them by configuration.
func Named() map[string]registry.Extension {
	return map[string]registry.Extension{
		"container":  container.Extension,
		"python":     python.Extension,
		"dbt":        dbt.Extension,
		"kfp":        kfp.Extension,
		"mlrun":      mlrun.Extension,
		"modelserve": modelserve.Extension,
	}
}
