package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Location is the spatial extent of a case as declared in the events file.
type Location struct {
	Type       string             `json:"type"`
	Parameters LocationParameters `json:"parameters"`
}

// LocationParameters holds the centered-region parameters. Longitudes use the
// 0-360 convention of the events file.
type LocationParameters struct {
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	BoundingBoxDegrees float64 `json:"bounding_box_degrees"`
}

// Case is a single historical extreme-weather event.
type Case struct {
	ID        int       `json:"case_id_number"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Location  Location  `json:"location"`
	EventType EventType `json:"event_type"`
}

// Validate checks the fields the engine relies on.
func (c Case) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("case %q: case_id_number must be positive", c.Title)
	}
	if c.EventType == "" {
		return fmt.Errorf("case %d: event_type is required", c.ID)
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("case %d: start_date and end_date are required", c.ID)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("case %d: end_date %s is before start_date %s",
			c.ID, c.EndDate.Format(time.DateOnly), c.StartDate.Format(time.DateOnly))
	}
	return nil
}

// CaseCollection is a read-only set of cases. Select returns new collections
// and never modifies the receiver.
type CaseCollection struct {
	Cases []Case `json:"cases"`
}

// NewCaseCollection copies cases into a collection.
func NewCaseCollection(cases []Case) CaseCollection {
	out := make([]Case, len(cases))
	copy(out, cases)
	return CaseCollection{Cases: out}
}

// Len returns the number of cases.
func (c CaseCollection) Len() int {
	return len(c.Cases)
}

// Select keeps the cases whose field equals value. Supported fields are
// event_type, title and case_id_number.
func (c CaseCollection) Select(field, value string) (CaseCollection, error) {
	var match func(Case) bool
	switch field {
	case "event_type":
		match = func(cs Case) bool { return string(cs.EventType) == value }
	case "title":
		match = func(cs Case) bool { return cs.Title == value }
	case "case_id_number":
		id, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return CaseCollection{}, fmt.Errorf("case_id_number %q: %w", value, err)
		}
		match = func(cs Case) bool { return cs.ID == id }
	default:
		return CaseCollection{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	selected := make([]Case, 0, len(c.Cases))
	for _, cs := range c.Cases {
		if match(cs) {
			selected = append(selected, cs)
		}
	}
	return CaseCollection{Cases: selected}, nil
}

// ByEventType keeps the cases of event type e.
func (c CaseCollection) ByEventType(e EventType) CaseCollection {
	selected := make([]Case, 0, len(c.Cases))
	for _, cs := range c.Cases {
		if cs.EventType == e {
			selected = append(selected, cs)
		}
	}
	return CaseCollection{Cases: selected}
}

// IDs returns the case IDs in collection order.
func (c CaseCollection) IDs() []int {
	ids := make([]int, len(c.Cases))
	for i, cs := range c.Cases {
		ids[i] = cs.ID
	}
	return ids
}

// CountByEventType tallies cases per event type.
func (c CaseCollection) CountByEventType() map[EventType]int {
	counts := make(map[EventType]int)
	for _, cs := range c.Cases {
		counts[cs.EventType]++
	}
	return counts
}
