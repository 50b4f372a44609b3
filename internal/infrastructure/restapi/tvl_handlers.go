package restapi

import (
	"net/http"
	"strings"

	"tvl_engine/internal/app/port"
	"tvl_engine/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// TVLRequest is the request body for the TVL endpoint. Balances carries
// map-shaped input; Entries carries list-shaped input with human-scale
// quantities. A nil Timestamp means "now" (live pricing).
type TVLRequest struct {
	Balances         map[string]string     `json:"balances"`
	Entries          []entity.BalanceEntry `json:"entries,omitempty"`
	Timestamp        *int64                `json:"timestamp,omitempty"`
	Verbose          bool                  `json:"verbose,omitempty"`
	KnownTokenPrices map[string]float64    `json:"knownTokenPrices,omitempty"`
	MaxRetries       int                   `json:"maxRetries,omitempty"`
}

// TVLResponse is the response envelope for the TVL endpoint.
type TVLResponse struct {
	Data struct {
		TVL entity.AggregateOutput `json:"tvl"`
	} `json:"data"`
	ServiceErrors []entity.ValuationError `json:"service_errors,omitempty"`
	StatusMessage string                  `json:"status_message"`
}

// TVLHandler serves HTTP requests for TVL computation. The lock gate is the
// server-wide admission hook for historical price requests; it is injected
// here and passed through unchanged on every invocation.
type TVLHandler struct {
	tvlService port.TVLService
	lockGate   entity.Gate
	logger     port.Logger
}

// NewTVLHandler creates a new TVLHandler instance.
func NewTVLHandler(svc port.TVLService, gate entity.Gate, log port.Logger) *TVLHandler {
	return &TVLHandler{tvlService: svc, lockGate: gate, logger: log}
}

// ComputeTVLHandler handles POST requests computing TVL for posted balances.
func (h *TVLHandler) ComputeTVLHandler(c *gin.Context) {
	var body TVLRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if body.Balances == nil && body.Entries == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "one of balances or entries is required"})
		return
	}

	raw := entity.RawBalances{Entries: body.Entries}
	if body.Entries == nil {
		raw.Tokens = make(map[string]entity.BalanceValue, len(body.Balances))
		for key, value := range body.Balances {
			raw.Tokens[key] = entity.StringValue(value)
		}
	}

	req := entity.ValuationRequest{
		Verbose:    body.Verbose,
		MaxRetries: body.MaxRetries,
		LockGate:   h.lockGate,
	}
	if body.Timestamp != nil {
		req.Timestamp = *body.Timestamp
	}
	if len(body.KnownTokenPrices) > 0 {
		req.KnownTokenPrices = make(entity.PriceMap, len(body.KnownTokenPrices))
		for key, usd := range body.KnownTokenPrices {
			req.KnownTokenPrices[strings.ToLower(key)] = entity.Price{USD: usd}
		}
	}

	out, serviceErrors := h.tvlService.ComputeTVL(c.Request.Context(), raw, req)

	response := TVLResponse{ServiceErrors: serviceErrors}
	response.Data.TVL = out
	if len(serviceErrors) > 0 {
		response.StatusMessage = "TVL computed. Some tokens degraded to zero contributions."
	} else {
		response.StatusMessage = "TVL computed successfully."
	}
	c.JSON(http.StatusOK, response)
}
