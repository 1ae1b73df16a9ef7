// Package api provides the HTTP API for the application
package api

import (
	"voiceform/internal/platform/config"
	"voiceform/internal/platform/logger"
	phttp "voiceform/internal/platform/net/http"
	"voiceform/internal/platform/store"

	"voiceform/internal/modkit"
	"voiceform/internal/modkit/httpkit"
	"voiceform/internal/modkit/module"
	"voiceform/internal/modkit/swaggerkit"

	metamod "voiceform/internal/services/api/meta/module"
	qstmod "voiceform/internal/services/questionnaire/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}

	mods := []module.Module{
		metamod.New(deps),
		qstmod.New(deps),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
