package plan

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftmark/billing-service/internal/domain/model"
)

func TestDefaultCatalogParses(t *testing.T) {
	c := Default()
	require.NotNil(t, c)

	plans := c.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, "starter", plans[0].Key)
	assert.Equal(t, "pro", plans[1].Key)
	assert.Equal(t, "enterprise", plans[2].Key)
}

func TestNormalize(t *testing.T) {
	c := Default()

	tests := []struct {
		in   string
		want string
	}{
		{"starter", "starter"},
		{"pro", "pro"},
		{"enterprise", "enterprise"},
		{"free", "starter"},
		{"basic", "starter"},
		{"professional", "pro"},
		{"premium", "pro"},
		{"elite", "enterprise"},
		{"business", "enterprise"},
		{"", "starter"},
		{"gold", "starter"},
		{"PRO", "starter"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestTierForPriceID(t *testing.T) {
	c := Default()

	tier, ok := c.TierForPriceID("price_pro_monthly")
	require.True(t, ok)
	assert.Equal(t, model.PlanTierPro, tier)

	tier, ok = c.TierForPriceID("price_enterprise_yearly")
	require.True(t, ok)
	assert.Equal(t, model.PlanTierEnterprise, tier)

	_, ok = c.TierForPriceID("price_unknown")
	assert.False(t, ok)
}

func TestPlanPrices(t *testing.T) {
	c := Default()

	pro, ok := c.ByKey("pro")
	require.True(t, ok)
	assert.True(t, pro.MonthlyPrice.Equal(decimal.NewFromInt(49)))
	assert.True(t, pro.YearlyPrice.Equal(decimal.NewFromInt(490)))

	starter, ok := c.ByKey("starter")
	require.True(t, ok)
	assert.True(t, starter.MonthlyPrice.IsZero())
}

func TestPriceIDByFrequency(t *testing.T) {
	c := Default()

	pro, ok := c.ByKey("pro")
	require.True(t, ok)
	assert.Equal(t, "price_pro_monthly", pro.PriceID(FrequencyMonthly))
	assert.Equal(t, "price_pro_yearly", pro.PriceID(FrequencyYearly))
}

func TestParseRejectsDuplicateKeys(t *testing.T) {
	data := []byte(`
plans:
  - key: starter
    name: Starter
    monthly_price: "0"
    yearly_price: "0"
  - key: starter
    name: Starter Again
    monthly_price: "1"
    yearly_price: "10"
`)
	_, err := parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate plan key")
}

func TestParseRejectsMissingDefaultPlan(t *testing.T) {
	data := []byte(`
plans:
  - key: pro
    name: Pro
    monthly_price: "49"
    yearly_price: "490"
`)
	_, err := parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default plan")
}

func TestOverridePriceIDs(t *testing.T) {
	c, err := parse(plansYAML)
	require.NoError(t, err)

	c.OverridePriceIDs("pro", "price_live_monthly", "price_live_yearly")

	pro, ok := c.ByKey("pro")
	require.True(t, ok)
	assert.Equal(t, "price_live_monthly", pro.MonthlyPriceID)
	assert.Equal(t, "price_live_yearly", pro.YearlyPriceID)

	tier, ok := c.TierForPriceID("price_live_monthly")
	require.True(t, ok)
	assert.Equal(t, model.PlanTierPro, tier)

	// Unknown keys and empty ids are ignored.
	c.OverridePriceIDs("gold", "x", "y")
	c.OverridePriceIDs("pro", "", "")
	assert.Equal(t, "price_live_monthly", pro.MonthlyPriceID)
}
