package usecase

import (
	"testing"

	"github.com/pricelens/backend/internal/domain"
)

func TestReconcile_TagPriceWinsOutright(t *testing.T) {
	r := NewReconciler(false)

	// A high-confidence indirect estimate must never outvote a printed tag
	tag := &domain.Candidate{Basis: domain.BasisTag, ListPrice: 4.99, Confidence: 0.88, LabelPrice: 4.99}
	guess := &domain.Candidate{
		Basis: domain.BasisGuess, ListPrice: 9.99, Confidence: 0.99,
		Name: "Premium Thing", Brand: "Brand", Variant: "XL", ProductCode: "123",
		SizeValue: 500, SizeUnit: domain.UnitGram,
	}

	for _, order := range [][]*domain.Candidate{{tag, guess}, {guess, tag}} {
		got := r.Reconcile(order)
		if got.ListPrice != 4.99 || got.Basis != domain.BasisTag {
			t.Errorf("Reconcile() = %.2f/%s, want tag 4.99", got.ListPrice, got.Basis)
		}
	}
}

func TestReconcile_ZeroTagPriceDoesNotShortCircuit(t *testing.T) {
	r := NewReconciler(false)

	tag := &domain.Candidate{Basis: domain.BasisTag, ListPrice: 0, Confidence: 0.9}
	sized := &domain.Candidate{Basis: domain.BasisSize, ListPrice: 3.00, Confidence: 0.5}

	got := r.Reconcile([]*domain.Candidate{tag, sized})
	if got.ListPrice != 3.00 {
		t.Errorf("Reconcile() price = %.2f, want 3.00", got.ListPrice)
	}
}

func TestReconcile_MultipleTags_PicksHigherConfidence(t *testing.T) {
	r := NewReconciler(false)

	a := &domain.Candidate{Basis: domain.BasisTag, ListPrice: 4.99, Confidence: 0.86}
	b := &domain.Candidate{Basis: domain.BasisTag, ListPrice: 5.49, Confidence: 0.95}

	got := r.Reconcile([]*domain.Candidate{a, b})
	if got.ListPrice != 5.49 {
		t.Errorf("Reconcile() price = %.2f, want 5.49", got.ListPrice)
	}
}

func TestReconcile_ScoringPrefersRicherEvidence(t *testing.T) {
	r := NewReconciler(false)

	// price + code + size + name/brand and decent confidence
	rich := &domain.Candidate{
		Basis: domain.BasisSize, ListPrice: 3.00, Confidence: 0.65,
		Name: "Butter", Brand: "Kerrygold", ProductCode: "4001234",
		SizeValue: 250, SizeUnit: domain.UnitGram,
	}
	// bare price only
	bare := &domain.Candidate{Basis: domain.BasisGuess, ListPrice: 2.00, Confidence: 0.2}

	got := r.Reconcile([]*domain.Candidate{bare, rich})
	if got != rich {
		t.Errorf("Reconcile() picked %+v, want the richer candidate", got)
	}
}

func TestReconcile_TieBrokenByHigherPrice(t *testing.T) {
	r := NewReconciler(false)

	a := &domain.Candidate{Basis: domain.BasisGuess, ListPrice: 2.00, Confidence: 0.5}
	b := &domain.Candidate{Basis: domain.BasisGuess, ListPrice: 3.00, Confidence: 0.5}

	got := r.Reconcile([]*domain.Candidate{a, b})
	if got.ListPrice != 3.00 {
		t.Errorf("Reconcile() price = %.2f, want tie broken to 3.00", got.ListPrice)
	}
}

func TestReconcile_ZeroPriceFallsBackToMaxObserved(t *testing.T) {
	r := NewReconciler(false)

	// Scores favor the candidate with fields but no price
	fields := &domain.Candidate{
		Basis: domain.BasisGuess, ListPrice: 0, Confidence: 0.7,
		Name: "Thing", Brand: "Brand", Variant: "V", ProductCode: "1",
		SizeValue: 1, SizeUnit: domain.UnitPiece,
	}
	priced := &domain.Candidate{Basis: domain.BasisGuess, ListPrice: 1.50, Confidence: 0.1}

	got := r.Reconcile([]*domain.Candidate{fields, priced})
	if got.ListPrice != 1.50 {
		t.Errorf("Reconcile() price = %.2f, want fallback 1.50", got.ListPrice)
	}
}

func TestReconcile_EmptyAndNilInputs(t *testing.T) {
	r := NewReconciler(false)

	got := r.Reconcile(nil)
	if got == nil || got.ListPrice != 0 {
		t.Errorf("Reconcile(nil) = %+v, want zero candidate", got)
	}

	got = r.Reconcile([]*domain.Candidate{nil, {Basis: domain.BasisGuess, ListPrice: 1}})
	if got == nil || got.ListPrice != 1 {
		t.Errorf("Reconcile() with nil entry = %+v, want the non-nil candidate", got)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		c    *domain.Candidate
		want int
	}{
		{"empty", &domain.Candidate{}, 0},
		{"price only", &domain.Candidate{ListPrice: 2}, scorePositivePrice},
		{"label and price", &domain.Candidate{LabelPrice: 2, ListPrice: 2}, scoreLabelPrice + scorePositivePrice},
		{"code", &domain.Candidate{ProductCode: "123"}, scoreProductCode},
		{"size pair", &domain.Candidate{SizeValue: 250, SizeUnit: domain.UnitGram}, scoreSizePair},
		{"size without unit", &domain.Candidate{SizeValue: 250, SizeUnit: domain.UnitUnknown}, 0},
		{"all name fields", &domain.Candidate{Name: "a", Brand: "b", Variant: "c"}, 3 * scoreFieldPresent},
		{"high confidence", &domain.Candidate{Confidence: 0.6}, scoreHighConf},
		{"mid confidence", &domain.Candidate{Confidence: 0.35}, scoreMidConf},
		{"low confidence", &domain.Candidate{Confidence: 0.34}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := score(tt.c); got != tt.want {
				t.Errorf("score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMergeRefined_HigherConfidenceWins(t *testing.T) {
	r := NewReconciler(false)

	primary := &domain.Candidate{Basis: domain.BasisGuess, ListPrice: 2.00, Confidence: 0.30, Name: "Thing"}
	refined := &domain.Candidate{Basis: domain.BasisCode, ListPrice: 2.79, Confidence: 0.75}

	got := r.MergeRefined(primary, refined)
	if got.ListPrice != 2.79 || got.Basis != domain.BasisCode {
		t.Errorf("MergeRefined() = %.2f/%s, want refined 2.79/code", got.ListPrice, got.Basis)
	}
	// Winner's empty name back-filled from the primary
	if got.Name != "Thing" {
		t.Errorf("Name = %q, want back-filled Thing", got.Name)
	}
}

func TestMergeRefined_WithinMarginBasisRankDecides(t *testing.T) {
	r := NewReconciler(false)

	primary := &domain.Candidate{Basis: domain.BasisGuess, ListPrice: 2.00, Confidence: 0.70}
	refined := &domain.Candidate{Basis: domain.BasisCode, ListPrice: 2.79, Confidence: 0.71}

	got := r.MergeRefined(primary, refined)
	if got.Basis != domain.BasisCode {
		t.Errorf("Basis = %s, want code (rank beats margin-close confidence)", got.Basis)
	}
}

func TestMergeRefined_FullTieKeepsPrimary(t *testing.T) {
	r := NewReconciler(false)

	primary := &domain.Candidate{Basis: domain.BasisCode, ListPrice: 2.00, Confidence: 0.70}
	refined := &domain.Candidate{Basis: domain.BasisCode, ListPrice: 2.79, Confidence: 0.70}

	got := r.MergeRefined(primary, refined)
	if got.ListPrice != 2.00 {
		t.Errorf("ListPrice = %.2f, want primary 2.00 kept", got.ListPrice)
	}
}

func TestMergeRefined_BackfillsEmptyFields(t *testing.T) {
	r := NewReconciler(false)

	primary := &domain.Candidate{
		Basis: domain.BasisCode, ListPrice: 2.50, Confidence: 0.80,
		ProductCode: "4001234",
	}
	refined := &domain.Candidate{
		Basis: domain.BasisCode, ListPrice: 2.79, Confidence: 0.50,
		Name: "Butter", Brand: "Kerrygold", SizeText: "250 g",
		SizeValue: 250, SizeUnit: domain.UnitGram,
	}

	got := r.MergeRefined(primary, refined)
	if got.ListPrice != 2.50 {
		t.Errorf("ListPrice = %.2f, want primary 2.50", got.ListPrice)
	}
	if got.Name != "Butter" || got.Brand != "Kerrygold" || got.SizeText != "250 g" {
		t.Errorf("back-fill missing: %+v", got)
	}
	if got.SizeValue != 250 || got.SizeUnit != domain.UnitGram {
		t.Errorf("size pair not back-filled: %v %s", got.SizeValue, got.SizeUnit)
	}
	// Inputs must not be mutated
	if primary.Name != "" {
		t.Error("primary candidate was mutated")
	}
}

func TestMergeRefined_ConcatenatesAssumptions(t *testing.T) {
	r := NewReconciler(false)

	primary := &domain.Candidate{Confidence: 0.80, Assumptions: "estimated from front label"}
	refined := &domain.Candidate{Confidence: 0.40, Assumptions: "code matched a 250g variant"}

	got := r.MergeRefined(primary, refined)
	want := "estimated from front label; code matched a 250g variant"
	if got.Assumptions != want {
		t.Errorf("Assumptions = %q, want %q", got.Assumptions, want)
	}
}

func TestMergeRefined_NilInputs(t *testing.T) {
	r := NewReconciler(false)

	c := &domain.Candidate{ListPrice: 1}
	if got := r.MergeRefined(c, nil); got != c {
		t.Error("MergeRefined(c, nil) should return primary")
	}
	if got := r.MergeRefined(nil, c); got != c {
		t.Error("MergeRefined(nil, c) should return refined")
	}
}
