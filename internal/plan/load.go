package plan

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override plan keys.
const EnvPrefix = "EVAL_PLAN_"

// envKeys maps flattened env names to nested plan keys.
var envKeys = map[string]string{
	"parallel_backend": "parallel.backend",
	"parallel_n_jobs":  "parallel.n_jobs",
}

// Load builds a plan by layering defaults, the YAML file at path, and
// EVAL_PLAN_ environment overrides (low -> high precedence).
func Load(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("plan path is required")
	}
	return load(defaults(), path)
}

// LoadBuiltin returns a built-in plan with environment overrides applied.
func LoadBuiltin(name string) (*File, error) {
	base, ok := Builtin(name)
	if !ok {
		return nil, fmt.Errorf("unknown built-in plan %q (available: %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return load(base, "")
}

func load(base File, path string) (*File, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load plan %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if nested, ok := envKeys[key]; ok {
			return nested
		}
		return key
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load plan env: %w", err)
	}

	f := base
	if err := k.UnmarshalWithConf("", &f, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if f.Name == "" && path != "" {
		f.Name = path
	}
	return &f, nil
}
