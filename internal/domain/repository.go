package domain

import (
	"context"
	"time"
)

// RecognitionOracle is the interface to the external multimodal recognition
// service. It is treated as a nondeterministic black box returning raw text;
// parsing and reconciliation happen in the usecase layer. Implementations must
// not retry: the call is paid and not guaranteed idempotent.
type RecognitionOracle interface {
	// Identify sends one or more normalized JPEG images in a single logical
	// call, optionally with the previous guess as best-effort context, and
	// returns the raw textual response.
	Identify(ctx context.Context, images [][]byte, prior *Candidate) (string, error)

	// RefineByCode asks the service for the current list price of a product
	// code (EAN), optionally with hint fields from the primary guess.
	RefineByCode(ctx context.Context, code string, hints map[string]string) (string, error)

	// SupportsMultiImage reports whether Identify accepts several images in
	// one call. When false the orchestrator falls back to sequential
	// single-image calls threading context forward.
	SupportsMultiImage() bool
}

// ResponseCache caches raw oracle responses in memory for the process
// lifetime. Used to avoid repeating paid refine-by-code calls for the same
// product code.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
