package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// SourceKind identifies how a forecast dataset is stored.
type SourceKind string

const (
	KindZarr     SourceKind = "zarr"
	KindKerchunk SourceKind = "kerchunk"
)

// TargetKind identifies the ground-truth family of a target.
type TargetKind string

const (
	TargetERA5 TargetKind = "era5"
	TargetGHCN TargetKind = "ghcn"
)

// PreprocessCIRAForecast is the engine-side hook that reshapes the CIRA
// AI-model archives (FourCastNet, GraphCast, Pangu) to the engine layout.
const PreprocessCIRAForecast = "bb_cira_forecast"

var preprocessHooks = []string{PreprocessCIRAForecast}

// ForecastSource describes a remote model-output dataset. Construct it with
// NewForecastSource; the returned value owns copies of its slices and maps.
type ForecastSource struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Kind            SourceKind        `json:"kind"`
	Source          string            `json:"source"`
	Variables       []string          `json:"variables"`
	VariableMapping map[string]string `json:"variable_mapping,omitempty"`
	StorageOptions  map[string]any    `json:"storage_options,omitempty"`
	Preprocess      string            `json:"preprocess,omitempty"`
}

// NewForecastSource validates f and returns a detached copy of it.
func NewForecastSource(f ForecastSource) (ForecastSource, error) {
	if f.ID == "" {
		return ForecastSource{}, fmt.Errorf("%w: forecast id is required", ErrInvalidSource)
	}
	if f.Name == "" {
		f.Name = f.ID
	}
	switch f.Kind {
	case KindZarr, KindKerchunk:
	default:
		return ForecastSource{}, fmt.Errorf("%w: forecast %s: unsupported kind %q", ErrInvalidSource, f.ID, f.Kind)
	}
	if err := validateURI(f.Source); err != nil {
		return ForecastSource{}, fmt.Errorf("forecast %s: %w", f.ID, err)
	}
	if len(f.Variables) == 0 {
		return ForecastSource{}, fmt.Errorf("%w: forecast %s: no variables", ErrInvalidSource, f.ID)
	}
	if f.Preprocess != "" && !slices.Contains(preprocessHooks, f.Preprocess) {
		return ForecastSource{}, fmt.Errorf("%w: forecast %s: unknown preprocess hook %q", ErrInvalidSource, f.ID, f.Preprocess)
	}

	f.Variables = slices.Clone(f.Variables)
	f.VariableMapping = maps.Clone(f.VariableMapping)
	f.StorageOptions = cloneOptions(f.StorageOptions)
	return f, nil
}

// Target describes the observational or reanalysis dataset used as truth.
// EventType, when set, restricts the target to one event type.
type Target struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Kind            TargetKind        `json:"kind"`
	EventType       EventType         `json:"event_type,omitempty"`
	Source          string            `json:"source"`
	Variables       []string          `json:"variables"`
	VariableMapping map[string]string `json:"variable_mapping,omitempty"`
	StorageOptions  map[string]any    `json:"storage_options,omitempty"`
}

func (t Target) clone() Target {
	t.Variables = slices.Clone(t.Variables)
	t.VariableMapping = maps.Clone(t.VariableMapping)
	t.StorageOptions = cloneOptions(t.StorageOptions)
	return t
}

// validateURI accepts object-store URIs, https URLs and local paths. The
// engine owns everything past the scheme.
func validateURI(uri string) error {
	if strings.TrimSpace(uri) == "" {
		return fmt.Errorf("%w: empty source", ErrInvalidSource)
	}
	scheme, rest, found := strings.Cut(uri, "://")
	if !found {
		return nil
	}
	switch scheme {
	case "gs", "gcs", "s3", "https", "file":
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSource, scheme)
	}
	if rest == "" {
		return fmt.Errorf("%w: %q has no bucket or path", ErrInvalidSource, uri)
	}
	return nil
}

// cloneOptions deep-copies nested option maps such as remote_options.
func cloneOptions(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneOptions(nested)
			continue
		}
		out[k] = v
	}
	return out
}
