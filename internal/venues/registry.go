// Package venues holds the registry of known trading venues and their
// jurisdiction eligibility. Config load rejects venues that are unknown
// or not tradable from the operating jurisdiction.
package venues

import (
	"errors"
	"fmt"
	"sort"

	"arbscan/internal/model"
)

var (
	// ErrUnknownVenue indicates a venue name not present in the registry.
	ErrUnknownVenue = errors.New("unknown venue")
	// ErrIneligibleVenue indicates a registered venue that cannot be
	// traded from the operating jurisdiction.
	ErrIneligibleVenue = errors.New("venue not eligible")
)

// Info describes a registered venue.
type Info struct {
	Venue    model.Venue
	Name     string
	Eligible bool
}

var registry = map[model.Venue]Info{
	model.VenueKraken:   {Venue: model.VenueKraken, Name: "Kraken", Eligible: true},
	model.VenueCoinbase: {Venue: model.VenueCoinbase, Name: "Coinbase", Eligible: true},
	model.VenueGemini:   {Venue: model.VenueGemini, Name: "Gemini", Eligible: true},
}

// Lookup returns registry info for a venue.
func Lookup(v model.Venue) (Info, error) {
	info, ok := registry[v]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrUnknownVenue, v)
	}
	return info, nil
}

// CheckEligible verifies the venue is registered and tradable.
func CheckEligible(v model.Venue) error {
	info, err := Lookup(v)
	if err != nil {
		return err
	}
	if !info.Eligible {
		return fmt.Errorf("%w: %q", ErrIneligibleVenue, v)
	}
	return nil
}

// Known returns all registered venues in sorted order.
func Known() []model.Venue {
	out := make([]model.Venue, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
