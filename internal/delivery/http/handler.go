package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/usecase"
)

// maxUploadBytes caps a single uploaded file. Anything larger is skipped; a
// phone photo re-encoded as JPEG stays far below this.
const maxUploadBytes = 15 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scanService *usecase.ScanService
}

// NewHandler creates a new HTTP handler
func NewHandler(scanService *usecase.ScanService) *Handler {
	return &Handler{scanService: scanService}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"service": "pricelens-backend",
		"version": "1.0.0",
	})
}

// scanResponse is the wire shape of a scan result
type scanResponse struct {
	OK          bool                    `json:"ok"`
	ListPrice   float64                 `json:"list_price"`
	OurPrice    float64                 `json:"our_price"`
	Source      string                  `json:"source"`
	Confidence  float64                 `json:"confidence"`
	PriceBasis  string                  `json:"price_basis,omitempty"`
	Name        string                  `json:"name,omitempty"`
	Brand       string                  `json:"brand,omitempty"`
	SizeText    string                  `json:"size_text,omitempty"`
	ProductCode string                  `json:"product_code,omitempty"`
	Warnings    []string                `json:"warnings,omitempty"`
	RuntimeMS   int64                   `json:"runtime_ms"`
	Items       []domain.ItemDiagnostic `json:"items,omitempty"`
}

// Scan handles photo uploads and responds with the estimated prices. It
// accepts any multipart field names and any number of file parts; clients vary
// here and the field name carries no information. The only client error is an
// upload with no readable image at all; everything else returns 200 with a
// degraded result.
func (h *Handler) Scan(c *gin.Context) {
	reader, err := c.Request.MultipartReader()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":    false,
			"error": "expected a multipart form upload with at least one image file",
		})
		return
	}

	// Read file parts in upload order; order matters for sequential context
	// threading downstream.
	var images [][]byte
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if part.FileName() == "" {
			// Non-file form fields are ignored
			part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, maxUploadBytes+1))
		part.Close()
		if err != nil || len(data) == 0 || len(data) > maxUploadBytes {
			continue
		}
		images = append(images, data)
	}

	result, err := h.scanService.Scan(c.Request.Context(), images)
	if err != nil {
		if errors.Is(err, domain.ErrNoValidImages) {
			c.JSON(http.StatusBadRequest, gin.H{
				"ok":    false,
				"error": "no readable image was uploaded",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "internal error",
		})
		return
	}

	c.JSON(http.StatusOK, toScanResponse(result))
}

// toScanResponse flattens the scan result and its winning candidate into the
// response shape
func toScanResponse(result *domain.ScanResult) scanResponse {
	resp := scanResponse{
		OK:        true,
		ListPrice: result.FinalListPrice,
		OurPrice:  result.OurPrice,
		Source:    result.Source,
		Warnings:  result.Warnings,
		RuntimeMS: result.RuntimeMS,
		Items:     result.Items,
	}

	if c := result.Candidate; c != nil {
		resp.Confidence = c.Confidence
		resp.Name = c.Name
		resp.Brand = c.Brand
		resp.SizeText = c.SizeText
		resp.ProductCode = c.ProductCode
		if result.FinalListPrice > 0 {
			resp.PriceBasis = string(c.Basis)
		}
	}

	return resp
}
