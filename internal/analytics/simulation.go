package analytics

import (
	"strconv"
	"strings"

	"salesdash/internal/fetcher"
)

// InvalidSimulationMessage is shown when product id or quantity are rejected locally
const InvalidSimulationMessage = "Please enter valid Product ID and Quantity."

// SimulationRequest asks the backend to record a completed order
type SimulationRequest struct {
	ProductID int
	Quantity  int
}

// SimulationResult is the backend answer to a successful simulation
type SimulationResult struct {
	Message string `json:"message"`
	OrderID int64  `json:"order_id,omitempty"`
}

// ParseSimulationRequest builds a request from raw user input
func ParseSimulationRequest(productID, quantity string) (SimulationRequest, error) {
	id, errID := strconv.Atoi(strings.TrimSpace(productID))
	qty, errQty := strconv.Atoi(strings.TrimSpace(quantity))
	if errID != nil || errQty != nil {
		return SimulationRequest{}, fetcher.NewValidationError(InvalidSimulationMessage)
	}

	req := SimulationRequest{ProductID: id, Quantity: qty}
	if err := req.Validate(); err != nil {
		return SimulationRequest{}, err
	}
	return req, nil
}

// Validate checks that both fields are positive
func (r SimulationRequest) Validate() error {
	if r.ProductID <= 0 || r.Quantity <= 0 {
		return fetcher.NewValidationError(InvalidSimulationMessage)
	}
	return nil
}

// Query returns the query string parameters of the simulate call
func (r SimulationRequest) Query() map[string]string {
	return map[string]string{
		"product_id": strconv.Itoa(r.ProductID),
		"quantity":   strconv.Itoa(r.Quantity),
	}
}
