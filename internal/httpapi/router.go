package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs
// srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Tab reports from the extension
	th := TabHandler{Session: d.Session, Hub: d.Hub}
	mux.HandleFunc("/tab", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  th.Get,
		http.MethodPost: th.Report,
	}))

	// Capture
	ch := CaptureHandler{Controller: d.Controller, DB: d.DB, Hub: d.Hub, Log: d.Log}
	mux.HandleFunc("/capture/state", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.State,
	}))
	mux.HandleFunc("/capture", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ch.Run,
	}))

	// Capture history
	lh := CapturesHandler{DB: d.DB, Hub: d.Hub, Log: d.Log, CfgVal: d.CfgVal, Submit: d.Submit}
	mux.HandleFunc("/captures", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.List,
	}))
	mux.HandleFunc("/captures/retry", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: lh.Retry,
	}))
	mux.HandleFunc("/captures/", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: lh.DeleteByPath, // expects /captures/{id}
	}))

	// Config
	cfh := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfh.Get,
		http.MethodPut: cfh.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfh.Path,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/ingest", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetIngestToken,
		http.MethodDelete: sh.DeleteIngestToken,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}
