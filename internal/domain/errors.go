package domain

import "errors"

var (
	ErrUnknownEventType  = errors.New("unknown event type")
	ErrUnknownMetric     = errors.New("unknown metric")
	ErrNoMetrics         = errors.New("metric list is empty")
	ErrUnknownTarget     = errors.New("unknown target")
	ErrUnknownField      = errors.New("unknown case field")
	ErrEventTypeMismatch = errors.New("task event type does not match run event type")
	ErrInvalidSource     = errors.New("invalid data source")
)
