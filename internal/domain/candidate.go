package domain

// PriceBasis identifies the evidentiary tier that produced a price estimate.
// Explicit printed prices outrank product-code lookups, which outrank
// size-derived arithmetic, which outranks pure brand/name recognition.
type PriceBasis string

const (
	BasisTag   PriceBasis = "tag"   // explicit printed price or label
	BasisCode  PriceBasis = "code"  // product code (EAN) lookup
	BasisSize  PriceBasis = "size"  // derived from unit price x quantity
	BasisGuess PriceBasis = "guess" // unconstrained estimate
)

// Rank returns the comparison rank of the basis (higher is stronger evidence).
func (b PriceBasis) Rank() int {
	switch b {
	case BasisTag:
		return 3
	case BasisCode:
		return 2
	case BasisSize:
		return 1
	default:
		return 0
	}
}

// SizeUnit is the normalized unit of a product's quantity.
type SizeUnit string

const (
	UnitGram       SizeUnit = "g"
	UnitKilogram   SizeUnit = "kg"
	UnitMilliliter SizeUnit = "ml"
	UnitLiter      SizeUnit = "l"
	UnitPiece      SizeUnit = "piece"
	UnitUnknown    SizeUnit = "unknown"
)

// Candidate is the structured result of one recognition attempt.
// It is immutable once parsed and never outlives the request.
type Candidate struct {
	Name        string     `json:"name,omitempty"`
	Brand       string     `json:"brand,omitempty"`
	Variant     string     `json:"variant,omitempty"`
	SizeText    string     `json:"sizeText,omitempty"`
	SizeValue   float64    `json:"sizeValue,omitempty"`
	SizeUnit    SizeUnit   `json:"sizeUnit,omitempty"`
	ProductCode string     `json:"productCode,omitempty"`
	LabelPrice  float64    `json:"labelPrice,omitempty"` // price read off a printed tag, when visible
	ListPrice   float64    `json:"listPrice"`            // >= 0; 0 means "unrecognized"
	Confidence  float64    `json:"confidence"`           // [0,1]
	Basis       PriceBasis `json:"priceBasis,omitempty"`
	Assumptions string     `json:"assumptions,omitempty"`
	ErrorTag    string     `json:"error,omitempty"`
}

// HasSize reports whether the candidate carries a usable quantity-and-unit pair.
func (c *Candidate) HasSize() bool {
	return c.SizeValue > 0 && c.SizeUnit != "" && c.SizeUnit != UnitUnknown
}
