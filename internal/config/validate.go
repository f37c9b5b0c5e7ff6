package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus the validation result.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Ingest.URL = strings.TrimSpace(out.Ingest.URL)
	out.Ingest.TokenAccount = strings.TrimSpace(out.Ingest.TokenAccount)
	out.App.LogLevel = strings.ToLower(strings.TrimSpace(out.App.LogLevel))
	out.App.LogFormat = strings.ToLower(strings.TrimSpace(out.App.LogFormat))

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.App.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		res.addErr("app.log_level must be one of debug/info/warn/error")
	}

	if out.Ingest.URL == "" {
		res.addErr("ingest.url is required")
	} else {
		u, err := url.Parse(out.Ingest.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("ingest.url must be an absolute http(s) URL")
		} else if u.Scheme != "http" && u.Scheme != "https" {
			res.addErr("ingest.url scheme must be http or https")
		}
	}
	if out.Ingest.TimeoutSeconds <= 0 {
		res.addErr("ingest.timeout_seconds must be > 0")
	}

	if out.Extract.TimeoutSeconds <= 0 {
		res.addErr("extract.timeout_seconds must be > 0")
	}
	if out.Extract.MaxBodyKB <= 0 {
		res.addErr("extract.max_body_kb must be > 0")
	} else if out.Extract.MaxBodyKB < 64 {
		res.addWarn("extract.max_body_kb is very low (%d); long postings will be truncated.", out.Extract.MaxBodyKB)
	}
	if out.Extract.PerHostRPS <= 0 {
		res.addErr("extract.per_host_rps must be > 0")
	} else if out.Extract.PerHostRPS > 5 {
		res.addWarn("extract.per_host_rps is high (%.1f); job boards may rate limit you.", out.Extract.PerHostRPS)
	}
	if out.Extract.Burst <= 0 {
		res.addErr("extract.burst must be > 0")
	}

	if out.History.RetentionDays <= 0 {
		res.addErr("history.retention_days must be > 0")
	}
	if out.History.RetryParallel <= 0 {
		res.addErr("history.retry_parallel must be > 0")
	} else if out.History.RetryParallel > 16 {
		res.addWarn("history.retry_parallel is high (%d); the backend may reject bursts.", out.History.RetryParallel)
	}

	return out, res
}
