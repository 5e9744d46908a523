package usecase

import (
	"log"

	"github.com/pricelens/backend/internal/domain"
)

// Scoring weights for the evidence-based candidate comparison. A directly-read
// tag price never reaches scoring: it wins outright first.
const (
	scoreLabelPrice    = 5 // codified label price field present
	scorePositivePrice = 4 // any positive price
	scoreProductCode   = 2 // product code present
	scoreSizePair      = 2 // quantity-and-unit pair present
	scoreFieldPresent  = 1 // each of name/brand/variant
	scoreHighConf      = 2 // confidence >= highConfThreshold
	scoreMidConf       = 1 // confidence in [midConfThreshold, highConfThreshold)
)

const (
	highConfThreshold = 0.6
	midConfThreshold  = 0.35

	// confidenceMargin is how much higher a refined guess's confidence must be
	// to beat the primary outright; within the margin the evidentiary basis
	// rank decides
	confidenceMargin = 0.03
)

// Reconciler combines multiple per-photo (or per-call) candidates into one
// authoritative price + basis + confidence.
type Reconciler struct {
	debug bool
}

// NewReconciler creates a reconciler
func NewReconciler(debug bool) *Reconciler {
	return &Reconciler{debug: debug}
}

// Reconcile picks the winning candidate from an ordered sequence.
// A tag-basis candidate with a positive price is authoritative and
// short-circuits scoring: an explicit printed price must never be outvoted by
// a higher-confidence indirect estimate. Otherwise the highest-scoring
// candidate wins, ties broken by higher price. If no candidate carries a
// positive price, the maximum observed price (possibly 0) is kept.
func (r *Reconciler) Reconcile(candidates []*domain.Candidate) *domain.Candidate {
	if len(candidates) == 0 {
		return &domain.Candidate{Basis: domain.BasisGuess}
	}

	// Rule 1: tag evidence wins outright
	var tagged *domain.Candidate
	for _, c := range candidates {
		if c == nil || c.Basis != domain.BasisTag || c.ListPrice <= 0 {
			continue
		}
		if tagged == nil || c.Confidence > tagged.Confidence ||
			(c.Confidence == tagged.Confidence && c.ListPrice > tagged.ListPrice) {
			tagged = c
		}
	}
	if tagged != nil {
		if r.debug {
			log.Printf("[RECONCILE] tag price %.2f wins outright", tagged.ListPrice)
		}
		return tagged
	}

	// Rule 2: score everything else
	var best *domain.Candidate
	bestScore := -1
	for _, c := range candidates {
		if c == nil {
			continue
		}
		s := score(c)
		if r.debug {
			log.Printf("[RECONCILE] candidate %q basis=%s price=%.2f conf=%.2f score=%d",
				c.Name, c.Basis, c.ListPrice, c.Confidence, s)
		}
		if s > bestScore || (s == bestScore && best != nil && c.ListPrice > best.ListPrice) {
			best = c
			bestScore = s
		}
	}
	if best == nil {
		return &domain.Candidate{Basis: domain.BasisGuess}
	}

	// Rule 4: zero-price winner falls back to the maximum observed price
	if best.ListPrice <= 0 {
		for _, c := range candidates {
			if c != nil && c.ListPrice > best.ListPrice {
				best = c
			}
		}
	}

	return best
}

// score rates one candidate's evidential completeness
func score(c *domain.Candidate) int {
	s := 0
	if c.LabelPrice > 0 {
		s += scoreLabelPrice
	}
	if c.ListPrice > 0 {
		s += scorePositivePrice
	}
	if c.ProductCode != "" {
		s += scoreProductCode
	}
	if c.HasSize() {
		s += scoreSizePair
	}
	if c.Name != "" {
		s += scoreFieldPresent
	}
	if c.Brand != "" {
		s += scoreFieldPresent
	}
	if c.Variant != "" {
		s += scoreFieldPresent
	}
	switch {
	case c.Confidence >= highConfThreshold:
		s += scoreHighConf
	case c.Confidence >= midConfThreshold:
		s += scoreMidConf
	}
	return s
}

// MergeRefined reconciles the primary photo guess with a product-code
// refinement. The clearly more confident candidate wins; within the margin the
// stronger evidentiary basis wins; full ties keep the primary. The winner's
// empty/zero fields are back-filled from the loser, and assumption notes are
// concatenated for audit visibility. Inputs are not mutated.
func (r *Reconciler) MergeRefined(primary, refined *domain.Candidate) *domain.Candidate {
	if refined == nil {
		return primary
	}
	if primary == nil {
		return refined
	}

	winner, loser := primary, refined
	switch {
	case refined.Confidence > primary.Confidence+confidenceMargin:
		winner, loser = refined, primary
	case primary.Confidence > refined.Confidence+confidenceMargin:
		// primary stays
	case refined.Basis.Rank() > primary.Basis.Rank():
		winner, loser = refined, primary
	}

	merged := *winner
	backfill(&merged, loser)

	if winner.Assumptions != "" && loser.Assumptions != "" {
		merged.Assumptions = winner.Assumptions + "; " + loser.Assumptions
	} else if merged.Assumptions == "" {
		merged.Assumptions = loser.Assumptions
	}

	if r.debug {
		log.Printf("[RECONCILE] merge: winner basis=%s conf=%.2f price=%.2f",
			merged.Basis, merged.Confidence, merged.ListPrice)
	}

	return &merged
}

// backfill copies the loser's values into the winner's empty/zero fields,
// field by field.
func backfill(winner, loser *domain.Candidate) {
	if winner.Name == "" {
		winner.Name = loser.Name
	}
	if winner.Brand == "" {
		winner.Brand = loser.Brand
	}
	if winner.Variant == "" {
		winner.Variant = loser.Variant
	}
	if winner.SizeText == "" {
		winner.SizeText = loser.SizeText
	}
	if !winner.HasSize() && loser.HasSize() {
		winner.SizeValue = loser.SizeValue
		winner.SizeUnit = loser.SizeUnit
	}
	if winner.ProductCode == "" {
		winner.ProductCode = loser.ProductCode
	}
	if winner.LabelPrice == 0 {
		winner.LabelPrice = loser.LabelPrice
	}
	if winner.ListPrice == 0 && loser.ListPrice > 0 {
		winner.ListPrice = loser.ListPrice
		winner.Basis = loser.Basis
	}
	if winner.SizeUnit == "" {
		winner.SizeUnit = domain.UnitUnknown
	}
}
