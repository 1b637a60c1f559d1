package streamds

import (
	"errors"
	"strings"

	"github.com/km3net/km3db-go/pkg/tsv"
)

// Descriptor describes one stream as reported by the catalog listing.
type Descriptor struct {
	Name               string
	Description        string
	Formats            []string
	MandatorySelectors []string
	OptionalSelectors  []string
}

// Selector is a named query parameter filtering a stream result.
type Selector struct {
	Name  string
	Value string
}

// Sel builds a Selector.
func Sel(name, value string) Selector {
	return Selector{Name: name, Value: value}
}

var (
	// ErrUnknownStream is returned when a stream is not in the catalog.
	ErrUnknownStream = errors.New("streamds: unknown stream")
	// ErrEmptyCatalog signals that the stream directory could not be
	// fetched at construction time.
	ErrEmptyCatalog = errors.New("streamds: could not fetch stream catalog")
)

// descriptorFromRecord maps one catalog row onto a Descriptor. The "-"
// marker stands for "no selectors".
func descriptorFromRecord(rec tsv.Record) (Descriptor, error) {
	name, ok := rec.Get("stream")
	if !ok || strings.TrimSpace(name) == "" {
		return Descriptor{}, errors.New("streamds: catalog row without a stream name")
	}
	description, _ := rec.Get("description")
	formats, _ := rec.Get("formats")
	mandatory, _ := rec.Get("mandatory_selectors")
	optional, _ := rec.Get("optional_selectors")

	return Descriptor{
		Name:               strings.ToLower(strings.TrimSpace(name)),
		Description:        description,
		Formats:            splitList(formats),
		MandatorySelectors: splitList(mandatory),
		OptionalSelectors:  splitList(optional),
	}, nil
}

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
