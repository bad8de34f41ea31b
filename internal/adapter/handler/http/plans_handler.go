package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/driftmark/billing-service/internal/domain/plan"
)

// PlansHandler serves the public plan catalog.
type PlansHandler struct {
	catalog *plan.Catalog
}

func NewPlansHandler(catalog *plan.Catalog) *PlansHandler {
	return &PlansHandler{catalog: catalog}
}

type planResponse struct {
	Key            string   `json:"key"`
	Name           string   `json:"name"`
	MonthlyPrice   string   `json:"monthly_price"`
	YearlyPrice    string   `json:"yearly_price"`
	MonthlyPriceID string   `json:"monthly_price_id"`
	YearlyPriceID  string   `json:"yearly_price_id"`
	Features       []string `json:"features"`
}

// ListPlans returns the catalog in display order.
func (h *PlansHandler) ListPlans(c echo.Context) error {
	plans := h.catalog.Plans()
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse{
			Key:            p.Key,
			Name:           p.Name,
			MonthlyPrice:   p.MonthlyPrice.String(),
			YearlyPrice:    p.YearlyPrice.String(),
			MonthlyPriceID: p.MonthlyPriceID,
			YearlyPriceID:  p.YearlyPriceID,
			Features:       p.Features,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"plans": out})
}
