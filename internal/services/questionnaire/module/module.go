// Package module wires the questionnaire into HTTP via modkit
package module

import (
	"net/http"

	"voiceform/internal/adapters/classify"
	"voiceform/internal/adapters/speech"
	"voiceform/internal/core/catalog"
	"voiceform/internal/modkit"
	"voiceform/internal/modkit/httpkit"
	"voiceform/internal/platform/strings"
	"voiceform/internal/services/questionnaire/domain"
	qsthttp "voiceform/internal/services/questionnaire/http"
	"voiceform/internal/services/questionnaire/repo"
	"voiceform/internal/services/questionnaire/service"
)

// Ports exposes the orchestrator port for cross-module lookups
type Ports struct {
	Orchestrator domain.OrchestratorPort
}

// Module implements the questionnaire module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     Ports
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *service.Service
	cat *catalog.Catalog
}

// New constructs the questionnaire module. The session store comes from
// Postgres unless CORE_QST_MEMORY_STORE opts into the in-process store;
// capability telemetry flows to ClickHouse when it is configured
func New(deps modkit.Deps, mopts ...modkit.Option) *Module {
	b := modkit.Build(append(
		[]modkit.Option{modkit.WithName("questionnaire"), modkit.WithPrefix("/questionnaire")},
		mopts...,
	)...)
	opts := FromConfig(deps.Cfg)

	cat := catalog.Default()

	var store domain.StorePort
	if opts.MemoryStore || deps.PG == nil {
		store = repo.NewMemory(opts.MemoryCapacity, opts.SessionTTL)
	} else {
		store = repo.NewPGStore(deps.PG, opts.SessionTTL)
	}

	var events domain.EventSinkPort = repo.NoopEventSink{}
	if deps.CH != nil {
		events = repo.NewCHEventSink(deps.CH)
	}

	speechClient := speech.New(speech.FromConfig(deps.Cfg))
	classifier := classify.MustNew(classify.FromConfig(deps.Cfg))

	svc := service.New(store, speechClient, speechClient, classifier, events, cat, service.Config{
		ConfidenceThreshold: opts.ConfidenceThreshold,
		MaxRetries:          opts.MaxRetries,
		TranscribeTimeout:   opts.TranscribeTimeout,
		SessionTTL:          opts.SessionTTL,
		AudioMinBytes:       opts.AudioMinBytes,
		AudioMaxBytes:       opts.AudioMaxBytes,
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
		cat:       cat,
	}
	m.ports = Ports{Orchestrator: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		qsthttp.Register(r, m.svc, m.cat)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name is the module name
func (m *Module) Name() string { return strings.MustString(m.name, "module name") }

// Prefix is the module route prefix
func (m *Module) Prefix() string { return strings.MustPrefix(m.prefix) }

// Middlewares is the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
