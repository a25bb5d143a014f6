// Package chardata implements the character-data matrix: a mapping from
// taxon name to an ordered sequence of character states, with optional
// per-site weights, per-site ambiguity bitsets, and a per-taxon gap
// vector.
package chardata

import (
	"errors"
	"fmt"
)

// Sentinel validation errors.
var (
	ErrUnknownTaxon     = errors.New("chardata: unknown taxon")
	ErrDuplicateTaxon   = errors.New("chardata: taxon already present")
	ErrSiteCountMismatch = errors.New("chardata: site count does not match the matrix")
	ErrBadAlphabetSize  = errors.New("chardata: alphabet size must be positive")
)

// An Observation is the recorded state at one taxon/site. Exactly one of
// four shapes applies:
//
//   - Gap: the site is missing data for this taxon: every start state sees
//     partial likelihood 1.
//   - a single compatible state (State >= 0, Bits == 0, Weights == nil):
//     unambiguous data.
//   - a bitset of compatible states (Bits != 0, Weights == nil): ambiguous
//     data, each compatible state contributing equally.
//   - a bitset with a per-state weight (Bits != 0, Weights != nil):
//     weighted character data, each compatible bit contributing its own
//     weight.
type Observation struct {
	Gap     bool
	State   int
	Bits    uint64
	Weights []float64
}

// Weighted reports whether this observation carries per-state weights.
func (o Observation) Weighted() bool { return o.Weights != nil }

// Ambiguous reports whether this observation is a multi-state bitset
// (weighted or not).
func (o Observation) Ambiguous() bool { return o.Bits != 0 }

// Weight returns the contribution weight of state c2 under this
// observation: 1 in the unweighted case, Weights[c2] in the weighted
// case.
func (o Observation) Weight(c2 int) float64 {
	if o.Weighted() {
		return o.Weights[c2]
	}
	return 1
}

// A Matrix holds character-state observations for a fixed alphabet size
// across a shared set of ordered sites, one row per taxon.
type Matrix struct {
	alphabetSize int
	numSites     int

	taxa  []string
	index map[string]int
	rows  map[string][]Observation

	patternWeights []float64
}

// New creates an empty matrix for the given alphabet size (e.g. 4 for
// nucleotides) and number of sites (site patterns).
func New(alphabetSize, numSites int) (*Matrix, error) {
	if alphabetSize <= 0 {
		return nil, ErrBadAlphabetSize
	}
	w := make([]float64, numSites)
	for i := range w {
		w[i] = 1
	}
	return &Matrix{
		alphabetSize:   alphabetSize,
		numSites:       numSites,
		index:          make(map[string]int),
		rows:           make(map[string][]Observation),
		patternWeights: w,
	}, nil
}

// AlphabetSize returns the number of character states C.
func (m *Matrix) AlphabetSize() int { return m.alphabetSize }

// NumSites returns the number of site patterns.
func (m *Matrix) NumSites() int { return m.numSites }

// NumTaxa returns the number of taxa currently in the matrix.
func (m *Matrix) NumTaxa() int { return len(m.taxa) }

// Taxa returns the taxon names in insertion order.
func (m *Matrix) Taxa() []string { return append([]string(nil), m.taxa...) }

// AddTaxon adds a row of per-site observations for name. obs must have
// exactly NumSites() entries.
func (m *Matrix) AddTaxon(name string, obs []Observation) error {
	if _, ok := m.rows[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTaxon, name)
	}
	if len(obs) != m.numSites {
		return fmt.Errorf("%w: taxon %q has %d sites, matrix has %d", ErrSiteCountMismatch, name, len(obs), m.numSites)
	}
	m.index[name] = len(m.taxa)
	m.taxa = append(m.taxa, name)
	m.rows[name] = append([]Observation(nil), obs...)
	return nil
}

// Observation returns the recorded observation for taxon at site.
func (m *Matrix) Observation(taxon string, site int) (Observation, error) {
	row, ok := m.rows[taxon]
	if !ok {
		return Observation{}, fmt.Errorf("%w: %q", ErrUnknownTaxon, taxon)
	}
	return row[site], nil
}

// GapVector returns, for taxon, a slice of length NumSites() that is true
// wherever the taxon has a gap.
func (m *Matrix) GapVector(taxon string) ([]bool, error) {
	row, ok := m.rows[taxon]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaxon, taxon)
	}
	gaps := make([]bool, len(row))
	for i, o := range row {
		gaps[i] = o.Gap
	}
	return gaps, nil
}

// PatternWeight returns the multiplicity of site pattern site (default 1).
func (m *Matrix) PatternWeight(site int) float64 { return m.patternWeights[site] }

// SetPatternWeight sets the multiplicity of site pattern site.
func (m *Matrix) SetPatternWeight(site int, w float64) { m.patternWeights[site] = w }
