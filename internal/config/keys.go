package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "backend.base_url", typ: kString, env: "LOOMON_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Backend.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.BaseURL },
	},
	{
		key: "backend.csrf_token", typ: kString, env: "LOOMON_CSRF_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Backend.CSRFToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.CSRFToken },
	},
	{
		key: "defaults.quality", typ: kString, env: "LOOMON_QUALITY",
		apply:   func(cfg *Config, v any) { cfg.Defaults.Quality = v.(string) },
		extract: func(cfg Config) any { return cfg.Defaults.Quality },
	},
	{
		key: "defaults.specificity", typ: kString, env: "LOOMON_SPECIFICITY",
		apply:   func(cfg *Config, v any) { cfg.Defaults.Specificity = v.(string) },
		extract: func(cfg Config) any { return cfg.Defaults.Specificity },
	},
	{
		key: "defaults.internet_mode", typ: kBool, env: "LOOMON_INTERNET_MODE",
		apply:   func(cfg *Config, v any) { cfg.Defaults.InternetMode = v.(bool) },
		extract: func(cfg Config) any { return cfg.Defaults.InternetMode },
	},
	{
		key: "defaults.model", typ: kString, env: "LOOMON_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Defaults.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Defaults.Model },
	},
	{
		key: "storage.data_dir", typ: kString, env: "LOOMON_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "LOOMON_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		v, ok, err := b.GetString(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || v == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, v)
		case kBool:
			if bv, err := strconv.ParseBool(v); err == nil {
				s.apply(cfg, bv)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
