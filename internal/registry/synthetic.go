package registry

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/arkinlabs/engine/internal/domain"
)

// SyntheticKey identifies a pipeline-minted instrument. Quote is mandatory;
// Base, Kind and Venue are optional refinements used by grouped and index
// feature generators (§4.5). Symbol, when set, overrides the derived
// canonical name (used for top-level feature indices like
// `index-<feature>@index`).
type SyntheticKey struct {
	Base   string
	Quote  string
	Kind   *domain.InstrumentKind
	Venue  *domain.VenueName
	Symbol string
}

// canonical renders the stable synthetic-instrument symbol grammar of §6.
func (k SyntheticKey) canonical() string {
	if k.Symbol != "" {
		return strings.ToLower(k.Symbol)
	}
	base := strings.ToLower(k.Base)
	quote := strings.ToLower(k.Quote)
	if k.Kind != nil {
		return fmt.Sprintf("syn-%s-%s-%s@index", strings.ToLower(string(*k.Kind)), base, quote)
	}
	return fmt.Sprintf("syn-%s-%s@index", base, quote)
}

// MintSynthetic returns the synthetic instrument for key, minting it on
// first request. Repeated calls with an equal key return the same
// instrument identity, satisfying the registry's synthetic-instrument
// mint/lookup contract.
func (r *Registry) MintSynthetic(key SyntheticKey) domain.Instrument {
	canonical := key.canonical()

	r.syntheticMu.Lock()
	defer r.syntheticMu.Unlock()

	if existing, ok := r.synthetic[canonical]; ok {
		return existing
	}

	var venueID uuid.UUID
	if key.Venue != nil {
		for _, v := range r.current().venues {
			if v.Name == *key.Venue {
				venueID = v.ID
				break
			}
		}
	}

	kind := domain.InstrumentSpot
	if key.Kind != nil {
		kind = *key.Kind
	}

	minted := domain.Instrument{
		ID:          uuid.New(),
		VenueID:     venueID,
		VenueSymbol: canonical,
		Kind:        kind,
		Synthetic:   true,
		Status:      domain.InstrumentTrading,
	}
	r.synthetic[canonical] = minted
	return minted
}

// LookupSynthetic returns the already-minted synthetic instrument for key,
// without minting one if it does not yet exist.
func (r *Registry) LookupSynthetic(key SyntheticKey) (domain.Instrument, bool) {
	r.syntheticMu.Lock()
	defer r.syntheticMu.Unlock()
	existing, ok := r.synthetic[key.canonical()]
	return existing, ok
}
