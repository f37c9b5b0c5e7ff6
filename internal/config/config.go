package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port      int    `yaml:"port"`
		DataDir   string `yaml:"data_dir"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"app"`

	Ingest struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		// Keychain account holding the optional bearer token.
		TokenAccount string `yaml:"token_account"`
	} `yaml:"ingest"`

	Extract struct {
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxBodyKB      int     `yaml:"max_body_kb"`
		PerHostRPS     float64 `yaml:"per_host_rps"`
		Burst          int     `yaml:"burst"`
	} `yaml:"extract"`

	History struct {
		RetentionDays int `yaml:"retention_days"`
		RetryParallel int `yaml:"retry_parallel"`
	} `yaml:"history"`
}

// Default is the built-in configuration, also used to bootstrap a data dir
// when no packaged config.yml is available.
func Default() Config {
	var cfg Config
	cfg.App.Port = 38472
	cfg.App.LogLevel = "info"
	cfg.App.LogFormat = "console"
	cfg.Ingest.URL = "http://127.0.0.1:8000/api/job_postings/analyze/"
	cfg.Ingest.TimeoutSeconds = 30
	cfg.Extract.TimeoutSeconds = 20
	cfg.Extract.MaxBodyKB = 2048
	cfg.Extract.PerHostRPS = 1.0
	cfg.Extract.Burst = 2
	cfg.History.RetentionDays = 90
	cfg.History.RetryParallel = 3
	return cfg
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
