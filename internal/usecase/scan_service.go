package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/images"
)

// ScanServiceConfig holds configuration for the scan orchestrator
type ScanServiceConfig struct {
	DiscountFactor     float64
	MaxPrice           float64
	MaxImagesPerScan   int
	RefineTTL          time.Duration
	EnableDebugLogging bool
}

// ScanService sequences one scan request: normalize every image, call the
// recognition oracle, extract and reconcile candidates, apply the price
// policy. A nil oracle means no credentials are configured; scans then degrade
// to a zero-price result without touching the network.
type ScanService struct {
	oracle     domain.RecognitionOracle
	cache      domain.ResponseCache
	normalizer *images.Normalizer
	reconciler *Reconciler
	policy     *Policy
	maxImages  int
	refineTTL  time.Duration
	debug      bool
}

// NewScanService creates a scan orchestrator with its dependencies. oracle and
// cache may be nil (degraded mode and no refine caching respectively).
func NewScanService(
	oracle domain.RecognitionOracle,
	cache domain.ResponseCache,
	normalizer *images.Normalizer,
	config ScanServiceConfig,
) *ScanService {
	maxImages := config.MaxImagesPerScan
	if maxImages <= 0 {
		maxImages = 6
	}
	refineTTL := config.RefineTTL
	if refineTTL <= 0 {
		refineTTL = 12 * time.Hour
	}

	return &ScanService{
		oracle:     oracle,
		cache:      cache,
		normalizer: normalizer,
		reconciler: NewReconciler(config.EnableDebugLogging),
		policy:     NewPolicy(config.DiscountFactor, config.MaxPrice),
		maxImages:  maxImages,
		refineTTL:  refineTTL,
		debug:      config.EnableDebugLogging,
	}
}

// normOutcome is the per-image result of the parallel normalization pass
type normOutcome struct {
	img *images.Normalized
	err error
}

// Scan runs the full pipeline for one request. It returns
// domain.ErrNoValidImages when nothing decodes (the only client-visible
// failure); every other fault degrades into a zero-price result with
// diagnostics.
func (s *ScanService) Scan(ctx context.Context, rawImages [][]byte) (*domain.ScanResult, error) {
	start := time.Now()

	if len(rawImages) == 0 {
		return nil, domain.ErrNoValidImages
	}

	var warnings []string
	if len(rawImages) > s.maxImages {
		warnings = append(warnings, fmt.Sprintf("too many images; only the first %d were analyzed", s.maxImages))
		rawImages = rawImages[:s.maxImages]
	}

	// Normalization of sibling images is independent; run it in parallel.
	outcomes := make([]normOutcome, len(rawImages))
	var wg sync.WaitGroup
	for i, data := range rawImages {
		wg.Add(1)
		go func(i int, data []byte) {
			defer wg.Done()
			img, err := s.normalizer.Normalize(data)
			outcomes[i] = normOutcome{img: img, err: err}
		}(i, data)
	}
	wg.Wait()

	var items []domain.ItemDiagnostic
	var normalized []*images.Normalized
	for i, o := range outcomes {
		if o.err != nil {
			// One unreadable photo must not abort the batch
			items = append(items, domain.ItemDiagnostic{
				Index:  i,
				Status: domain.SourceDecodeFailed,
				Detail: o.err.Error(),
			})
			continue
		}
		items = append(items, domain.ItemDiagnostic{Index: i, Status: "normalized"})
		normalized = append(normalized, o.img)
	}

	if len(normalized) == 0 {
		return nil, domain.ErrNoValidImages
	}

	if s.oracle == nil {
		// No credentials configured: degrade without any network call
		return s.degradedResult(domain.SourceNoCredentials, warnings, items, start), nil
	}

	candidates, callStatuses := s.recognize(ctx, normalized)

	winner := s.reconciler.Reconcile(candidates)

	source := aggregateSource(callStatuses)
	if source == domain.SourceOracle && winner.ProductCode != "" && winner.Basis != domain.BasisTag {
		refined, ok := s.refineByCode(ctx, winner)
		if ok {
			winner = s.reconciler.MergeRefined(winner, refined)
			source = domain.SourceOracleRefined
		} else {
			warnings = append(warnings, "product code refinement failed")
		}
	}

	if winner.ListPrice > s.policy.MaxPrice() {
		warnings = append(warnings, "estimated price above sanity ceiling, treated as unrecognized")
	}

	list, offer := s.policy.Finalize(winner.ListPrice)

	if list > 0 && winner.Confidence < midConfThreshold {
		warnings = append(warnings, "low confidence estimate")
	}
	if winner.Assumptions != "" {
		warnings = append(warnings, "assumptions: "+winner.Assumptions)
	}

	if s.debug {
		log.Printf("[SCAN] %d image(s) -> list=%.2f offer=%.2f source=%s basis=%s conf=%.2f",
			len(normalized), list, offer, source, winner.Basis, winner.Confidence)
	}

	return &domain.ScanResult{
		Candidate:      winner,
		FinalListPrice: list,
		OurPrice:       offer,
		Source:         source,
		Warnings:       warnings,
		RuntimeMS:      time.Since(start).Milliseconds(),
		Items:          items,
	}, nil
}

// recognize issues the oracle calls. With several images and a multi-image
// capable adapter everything travels in one logical call, so a photo of a
// price tag can be combined with a photo of the product face. Otherwise it
// folds over the images sequentially, threading each parsed result forward as
// context; this ordered accumulation must not be parallelized.
func (s *ScanService) recognize(ctx context.Context, normalized []*images.Normalized) ([]*domain.Candidate, []string) {
	payloads := make([][]byte, len(normalized))
	for i, img := range normalized {
		payloads[i] = img.JPEG
	}

	if len(payloads) >= 2 && s.oracle.SupportsMultiImage() {
		raw, err := s.oracle.Identify(ctx, payloads, nil)
		cand, status := s.candidateFromCall(raw, err)
		return []*domain.Candidate{cand}, []string{status}
	}

	var candidates []*domain.Candidate
	var statuses []string
	var prior *domain.Candidate
	for _, payload := range payloads {
		raw, err := s.oracle.Identify(ctx, [][]byte{payload}, prior)
		cand, status := s.candidateFromCall(raw, err)
		candidates = append(candidates, cand)
		statuses = append(statuses, status)
		if status == domain.SourceOracle {
			prior = cand
		}
	}
	return candidates, statuses
}

// candidateFromCall converts one oracle call outcome into a candidate,
// degrading every failure mode into a zero-price candidate with an error tag.
func (s *ScanService) candidateFromCall(raw string, err error) (*domain.Candidate, string) {
	if err != nil {
		status := domain.SourceUnavailable
		tag := "service_error"
		var httpErr *domain.OracleHTTPError
		switch {
		case errors.Is(err, domain.ErrMissingCredentials):
			status = domain.SourceNoCredentials
			tag = "missing_credentials"
		case errors.As(err, &httpErr):
			tag = "service_http_error"
		case errors.Is(err, domain.ErrOracleRequestFailed):
			tag = "service_request_failed"
		}
		if s.debug {
			log.Printf("[SCAN] oracle call failed: %v", err)
		}
		return &domain.Candidate{Basis: domain.BasisGuess, ErrorTag: tag}, status
	}

	cand, perr := ParseCandidate(raw)
	if perr != nil {
		if s.debug {
			log.Printf("[SCAN] unparseable oracle output: %v", perr)
		}
		return &domain.Candidate{Basis: domain.BasisGuess, ErrorTag: "invalid_structured_output"}, domain.SourceInvalidOutput
	}
	return cand, domain.SourceOracle
}

// refineByCode runs the secondary product-code lookup, consulting the
// response cache first so repeated scans of the same product do not repeat the
// paid call.
func (s *ScanService) refineByCode(ctx context.Context, primary *domain.Candidate) (*domain.Candidate, bool) {
	key := "refine:" + primary.ProductCode

	var raw string
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			raw = cached
		}
	}

	if raw == "" {
		hints := map[string]string{}
		if primary.Name != "" {
			hints["name"] = primary.Name
		}
		if primary.Brand != "" {
			hints["brand"] = primary.Brand
		}
		if primary.SizeText != "" {
			hints["size"] = primary.SizeText
		}

		fetched, err := s.oracle.RefineByCode(ctx, primary.ProductCode, hints)
		if err != nil {
			if s.debug {
				log.Printf("[SCAN] refine by code failed: %v", err)
			}
			return nil, false
		}
		raw = fetched

		if s.cache != nil {
			if err := s.cache.Set(ctx, key, raw, s.refineTTL); err != nil && s.debug {
				log.Printf("[SCAN] caching refine response failed: %v", err)
			}
		}
	}

	refined, err := ParseCandidate(raw)
	if err != nil {
		return nil, false
	}
	return refined, true
}

// degradedResult builds the graceful zero-price response
func (s *ScanService) degradedResult(source string, warnings []string, items []domain.ItemDiagnostic, start time.Time) *domain.ScanResult {
	return &domain.ScanResult{
		Candidate:      &domain.Candidate{Basis: domain.BasisGuess},
		FinalListPrice: 0,
		OurPrice:       0,
		Source:         source,
		Warnings:       warnings,
		RuntimeMS:      time.Since(start).Milliseconds(),
		Items:          items,
	}
}

// aggregateSource picks the response-level source label from the per-call
// statuses: any successful call makes the scan an oracle result; otherwise the
// first failure mode wins.
func aggregateSource(statuses []string) string {
	if len(statuses) == 0 {
		return domain.SourceUnavailable
	}
	for _, st := range statuses {
		if st == domain.SourceOracle {
			return domain.SourceOracle
		}
	}
	return statuses[0]
}
