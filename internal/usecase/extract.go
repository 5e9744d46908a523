package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// rawResponseLimit is how much of an unparseable oracle response is retained
// in the error for diagnostics
const rawResponseLimit = 800

// wireCandidate mirrors the loosely-typed JSON schema the oracle is
// instructed to emit. Numeric fields are `any` because models occasionally
// return numbers as strings (or with decimal commas); CoercePrice absorbs that
// at this boundary so downstream logic only ever sees a validated Candidate.
type wireCandidate struct {
	Name           string `json:"name"`
	Brand          string `json:"brand"`
	Model          string `json:"model"`
	EAN            string `json:"ean"`
	Quantity       any    `json:"quantity"`
	Unit           string `json:"unit"`
	SizeText       string `json:"size_text"`
	LabelPrice     any    `json:"label_price_eur"`
	UnitPrice      any    `json:"unit_price_eur"`
	UnitPriceBasis string `json:"unit_price_basis"`
	RetailPrice    any    `json:"retail_price"`
	PriceBasis     string `json:"price_basis"`
	Confidence     any    `json:"confidence"`
	Assumptions    string `json:"assumptions"`
	Error          string `json:"error"`
}

// ParseCandidate turns a raw oracle response into a validated Candidate.
// It first attempts strict parsing of the whole text (after stripping markdown
// fences), then salvages the outermost brace-delimited object substring.
// If both fail it returns domain.ErrInvalidOutput with the truncated raw text.
func ParseCandidate(raw string) (*domain.Candidate, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var wire wireCandidate
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		salvaged, ok := salvageObject(text)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidOutput, truncateRaw(raw))
		}
		if err := json.Unmarshal([]byte(salvaged), &wire); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidOutput, truncateRaw(raw))
		}
	}

	return wire.toCandidate(), nil
}

// salvageObject locates the outermost brace-delimited substring, for responses
// like `Here you go: {"retail_price": 2.5} thanks`.
func salvageObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func truncateRaw(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > rawResponseLimit {
		return raw[:rawResponseLimit]
	}
	return raw
}

// toCandidate validates and normalizes the wire fields into a Candidate.
func (w *wireCandidate) toCandidate() *domain.Candidate {
	c := &domain.Candidate{
		Name:        strings.TrimSpace(w.Name),
		Brand:       strings.TrimSpace(w.Brand),
		Variant:     strings.TrimSpace(w.Model),
		SizeText:    strings.TrimSpace(w.SizeText),
		SizeValue:   CoercePrice(w.Quantity),
		SizeUnit:    normalizeUnit(w.Unit),
		ProductCode: strings.TrimSpace(w.EAN),
		LabelPrice:  CoercePrice(w.LabelPrice),
		ListPrice:   CoercePrice(w.RetailPrice),
		Confidence:  clampConfidence(CoercePrice(w.Confidence)),
		Assumptions: strings.TrimSpace(w.Assumptions),
		ErrorTag:    strings.TrimSpace(w.Error),
	}

	if c.SizeText == "" && c.SizeValue > 0 && c.SizeUnit != domain.UnitUnknown {
		c.SizeText = strconv.FormatFloat(c.SizeValue, 'f', -1, 64) + " " + string(c.SizeUnit)
	}

	// Unit-price arithmetic fallback: the model is told to do this itself,
	// but older responses sometimes carry only the unit price and quantity.
	derived := false
	if c.ListPrice <= 0 {
		if v := deriveFromUnitPrice(c.SizeValue, c.SizeUnit, CoercePrice(w.UnitPrice), w.UnitPriceBasis); v > 0 {
			c.ListPrice = v
			derived = true
		}
	}

	switch {
	case c.LabelPrice > 0:
		// A directly-read tag price is authoritative
		c.ListPrice = c.LabelPrice
		c.Basis = domain.BasisTag
	case validBasis(w.PriceBasis):
		c.Basis = domain.PriceBasis(w.PriceBasis)
	case derived:
		c.Basis = domain.BasisSize
	default:
		c.Basis = domain.BasisGuess
	}

	if c.ListPrice < 0 {
		c.ListPrice = 0
	}

	return c
}

func validBasis(s string) bool {
	switch domain.PriceBasis(s) {
	case domain.BasisTag, domain.BasisCode, domain.BasisSize, domain.BasisGuess:
		return true
	}
	return false
}

func clampConfidence(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// normalizeUnit maps the oracle's free-form unit strings onto the SizeUnit enum
func normalizeUnit(unit string) domain.SizeUnit {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g", "gram", "grams":
		return domain.UnitGram
	case "kg", "kilogram", "kilograms":
		return domain.UnitKilogram
	case "ml", "milliliter", "milliliters":
		return domain.UnitMilliliter
	case "l", "liter", "liters", "litre", "litres":
		return domain.UnitLiter
	case "piece", "pieces", "pc", "pcs", "stk", "st", "count":
		return domain.UnitPiece
	default:
		return domain.UnitUnknown
	}
}

// deriveFromUnitPrice computes a total price from a per-unit price and a fill
// quantity (e.g. 250 g at 1.20/100g -> 3.00). Returns 0 when the inputs do not
// line up.
func deriveFromUnitPrice(quantity float64, unit domain.SizeUnit, unitPrice float64, basis string) float64 {
	if quantity <= 0 || unitPrice <= 0 {
		return 0
	}

	// Normalize quantity to grams/milliliters
	base := quantity
	switch unit {
	case domain.UnitKilogram, domain.UnitLiter:
		base = quantity * 1000
	case domain.UnitGram, domain.UnitMilliliter, domain.UnitPiece:
		// already in base units
	default:
		return 0
	}

	switch basis {
	case "per_100g", "per_100ml":
		return base / 100 * unitPrice
	case "per_kg", "per_l":
		return base / 1000 * unitPrice
	case "per_piece":
		if unit != domain.UnitPiece {
			return 0
		}
		return quantity * unitPrice
	default:
		return 0
	}
}

// CoercePrice pulls a number out of whatever the oracle put into a numeric
// field: floats, integers, json.Number, numeric strings, decimal-comma strings
// and strings with currency decorations. Total failure yields 0 rather than an
// error; price is best effort and absent-is-zero.
func CoercePrice(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		return coercePriceString(n)
	default:
		return 0
	}
}

func coercePriceString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	// Strip currency decorations
	s = strings.NewReplacer("€", "", "EUR", "", "eur", "", " ", "").Replace(s)

	// Decimal comma handling: "4,99" -> "4.99"; "1.234,56" -> "1234.56"
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.ReplaceAll(s, ",", ".")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FormatPrice renders a price with two decimals, the inverse of CoercePrice
// for representable values.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
