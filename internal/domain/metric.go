package domain

import (
	"fmt"
	"strings"
)

// Metric selects an error statistic computed by the evaluation engine.
// Selectors carry no configuration.
type Metric string

const (
	RootMeanSquaredError     Metric = "RootMeanSquaredError"
	MeanAbsoluteError        Metric = "MeanAbsoluteError"
	MaximumMeanAbsoluteError Metric = "MaximumMeanAbsoluteError"
)

// metricAliases maps lowercased selector names and short aliases to metrics.
var metricAliases = map[string]Metric{
	"rootmeansquarederror":     RootMeanSquaredError,
	"rmse":                     RootMeanSquaredError,
	"meanabsoluteerror":        MeanAbsoluteError,
	"mae":                      MeanAbsoluteError,
	"maximummeanabsoluteerror": MaximumMeanAbsoluteError,
	"max_mae":                  MaximumMeanAbsoluteError,
	"maxmae":                   MaximumMeanAbsoluteError,
}

// ParseMetric accepts a selector name or short alias, case-insensitively.
func ParseMetric(s string) (Metric, error) {
	m, ok := metricAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
	return m, nil
}

// ParseMetrics parses every name and rejects empty lists and duplicates.
func ParseMetrics(names []string) ([]Metric, error) {
	if len(names) == 0 {
		return nil, ErrNoMetrics
	}
	out := make([]Metric, 0, len(names))
	seen := make(map[Metric]bool, len(names))
	for _, name := range names {
		m, err := ParseMetric(name)
		if err != nil {
			return nil, err
		}
		if seen[m] {
			return nil, fmt.Errorf("duplicate metric %s", m)
		}
		seen[m] = true
		out = append(out, m)
	}
	return out, nil
}

// Recognized reports whether m is a selector the engine understands.
func (m Metric) Recognized() bool {
	switch m {
	case RootMeanSquaredError, MeanAbsoluteError, MaximumMeanAbsoluteError:
		return true
	default:
		return false
	}
}

// ShortName returns the alias used in logs, e.g. "rmse".
func (m Metric) ShortName() string {
	switch m {
	case RootMeanSquaredError:
		return "rmse"
	case MeanAbsoluteError:
		return "mae"
	case MaximumMeanAbsoluteError:
		return "max_mae"
	default:
		return string(m)
	}
}
