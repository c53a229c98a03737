package domain

import (
	"fmt"
	"strings"
)

// EventType labels a class of extreme-weather case.
type EventType string

const (
	EventHeatWave         EventType = "heat_wave"
	EventFreeze           EventType = "freeze"
	EventSevereConvection EventType = "severe_convection"
	EventAtmosphericRiver EventType = "atmospheric_river"
	EventTropicalCyclone  EventType = "tropical_cyclone"
)

var eventTypes = []EventType{
	EventHeatWave,
	EventFreeze,
	EventSevereConvection,
	EventAtmosphericRiver,
	EventTropicalCyclone,
}

// ParseEventType normalizes s and returns the matching event type.
func ParseEventType(s string) (EventType, error) {
	e := EventType(strings.ToLower(strings.TrimSpace(s)))
	if !e.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, s)
	}
	return e, nil
}

// Valid reports whether e is one of the known event types.
func (e EventType) Valid() bool {
	for _, known := range eventTypes {
		if e == known {
			return true
		}
	}
	return false
}

// ShortName is the form used in result file names, e.g. "heat" for heat_wave.
func (e EventType) ShortName() string {
	if e == EventHeatWave {
		return "heat"
	}
	return string(e)
}
