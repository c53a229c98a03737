// Package casefile reads the extreme-weather events YAML into a case collection.
package casefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
	"gopkg.in/yaml.v3"
)

// document is the top-level shape of the events file.
type document struct {
	Cases []record `yaml:"cases"`
}

// record is one case as written in the events file.
type record struct {
	CaseID    int       `yaml:"case_id_number"`
	Title     string    `yaml:"title"`
	StartDate time.Time `yaml:"start_date"`
	EndDate   time.Time `yaml:"end_date"`
	Location  struct {
		Type       string `yaml:"type"`
		Parameters struct {
			Latitude           float64 `yaml:"latitude"`
			Longitude          float64 `yaml:"longitude"`
			BoundingBoxDegrees float64 `yaml:"bounding_box_degrees"`
		} `yaml:"parameters"`
	} `yaml:"location"`
	EventType string `yaml:"event_type"`
}

// Load reads and validates the events file at path.
func Load(path string) (domain.CaseCollection, error) {
	if path == "" {
		return domain.CaseCollection{}, errors.New("events file path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.CaseCollection{}, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	cases, err := Decode(f)
	if err != nil {
		return domain.CaseCollection{}, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// Decode parses an events document. Case IDs must be unique.
func Decode(r io.Reader) (domain.CaseCollection, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.CaseCollection{}, errors.New("events file is empty")
		}
		return domain.CaseCollection{}, fmt.Errorf("decode events: %w", err)
	}

	cases := make([]domain.Case, 0, len(doc.Cases))
	seen := make(map[int]bool, len(doc.Cases))
	for i, rec := range doc.Cases {
		c := toCase(rec)
		if err := c.Validate(); err != nil {
			return domain.CaseCollection{}, fmt.Errorf("cases[%d]: %w", i, err)
		}
		if seen[c.ID] {
			return domain.CaseCollection{}, fmt.Errorf("cases[%d]: duplicate case_id_number %d", i, c.ID)
		}
		seen[c.ID] = true
		cases = append(cases, c)
	}
	return domain.NewCaseCollection(cases), nil
}

func toCase(rec record) domain.Case {
	return domain.Case{
		ID:        rec.CaseID,
		Title:     rec.Title,
		StartDate: rec.StartDate.UTC(),
		EndDate:   rec.EndDate.UTC(),
		Location: domain.Location{
			Type: rec.Location.Type,
			Parameters: domain.LocationParameters{
				Latitude:           rec.Location.Parameters.Latitude,
				Longitude:          rec.Location.Parameters.Longitude,
				BoundingBoxDegrees: rec.Location.Parameters.BoundingBoxDegrees,
			},
		},
		EventType: domain.EventType(rec.EventType),
	}
}
