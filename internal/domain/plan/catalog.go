// Package plan holds the static plan catalog: the single source of truth for
// tiers, prices, price identifiers and alias resolution. The catalog is
// versioned in code; changing prices is a deployment, not a runtime API.
package plan

import (
	"fmt"
	"sync"

	_ "embed"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/driftmark/billing-service/internal/domain/model"
)

// Frequency selects the billing cycle of a price.
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// DefaultPlanKey is what unknown plan identifiers normalize to.
const DefaultPlanKey = "starter"

// Plan is one catalog entry.
type Plan struct {
	Key            string
	Name           string
	MonthlyPrice   decimal.Decimal
	YearlyPrice    decimal.Decimal
	MonthlyPriceID string
	YearlyPriceID  string
	Features       []string
	Aliases        []string
}

// Tier returns the account tier this plan maps to.
func (p *Plan) Tier() model.PlanTier {
	return model.PlanTier(p.Key)
}

// PriceID returns the provider price id for the given billing frequency.
func (p *Plan) PriceID(f Frequency) string {
	if f == FrequencyYearly {
		return p.YearlyPriceID
	}
	return p.MonthlyPriceID
}

// Catalog resolves plan keys, aliases and price ids.
type Catalog struct {
	plans   map[string]*Plan
	aliases map[string]string
	ordered []*Plan
}

//go:embed plans.yaml
var plansYAML []byte

type planDoc struct {
	Plans []struct {
		Key            string   `yaml:"key"`
		Name           string   `yaml:"name"`
		MonthlyPrice   string   `yaml:"monthly_price"`
		YearlyPrice    string   `yaml:"yearly_price"`
		MonthlyPriceID string   `yaml:"monthly_price_id"`
		YearlyPriceID  string   `yaml:"yearly_price_id"`
		Features       []string `yaml:"features"`
		Aliases        []string `yaml:"aliases"`
	} `yaml:"plans"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog parsed from the embedded plan table.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := parse(plansYAML)
		if err != nil {
			// The table is embedded and covered by tests; a parse failure
			// is a build defect.
			panic(fmt.Sprintf("plan catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func parse(data []byte) (*Catalog, error) {
	var doc planDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse plan table: %w", err)
	}

	c := &Catalog{
		plans:   make(map[string]*Plan, len(doc.Plans)),
		aliases: make(map[string]string),
	}

	for _, entry := range doc.Plans {
		monthly, err := decimal.NewFromString(entry.MonthlyPrice)
		if err != nil {
			return nil, fmt.Errorf("plan %s: bad monthly price %q: %w", entry.Key, entry.MonthlyPrice, err)
		}
		yearly, err := decimal.NewFromString(entry.YearlyPrice)
		if err != nil {
			return nil, fmt.Errorf("plan %s: bad yearly price %q: %w", entry.Key, entry.YearlyPrice, err)
		}

		p := &Plan{
			Key:            entry.Key,
			Name:           entry.Name,
			MonthlyPrice:   monthly,
			YearlyPrice:    yearly,
			MonthlyPriceID: entry.MonthlyPriceID,
			YearlyPriceID:  entry.YearlyPriceID,
			Features:       entry.Features,
			Aliases:        entry.Aliases,
		}

		if _, dup := c.plans[p.Key]; dup {
			return nil, fmt.Errorf("duplicate plan key %q", p.Key)
		}
		c.plans[p.Key] = p
		c.ordered = append(c.ordered, p)

		for _, alias := range entry.Aliases {
			if existing, dup := c.aliases[alias]; dup {
				return nil, fmt.Errorf("alias %q maps to both %q and %q", alias, existing, p.Key)
			}
			c.aliases[alias] = p.Key
		}
	}

	if _, ok := c.plans[DefaultPlanKey]; !ok {
		return nil, fmt.Errorf("catalog is missing the default plan %q", DefaultPlanKey)
	}

	return c, nil
}

// Normalize resolves a plan identifier or alias to its canonical key.
// Unknown identifiers fall back to the default plan rather than erroring.
func (c *Catalog) Normalize(id string) string {
	if _, ok := c.plans[id]; ok {
		return id
	}
	if key, ok := c.aliases[id]; ok {
		return key
	}
	return DefaultPlanKey
}

// ByKey returns the plan for a canonical key.
func (c *Catalog) ByKey(key string) (*Plan, bool) {
	p, ok := c.plans[key]
	return p, ok
}

// Plans returns all plans in catalog order.
func (c *Catalog) Plans() []*Plan {
	return c.ordered
}

// TierForPriceID maps a provider price id back to the plan it belongs to.
func (c *Catalog) TierForPriceID(priceID string) (model.PlanTier, bool) {
	for _, p := range c.ordered {
		if p.MonthlyPriceID == priceID || p.YearlyPriceID == priceID {
			return p.Tier(), true
		}
	}
	return "", false
}

// OverridePriceIDs replaces the baked-in price ids for a plan, used to apply
// per-environment ids from configuration.
func (c *Catalog) OverridePriceIDs(key, monthlyID, yearlyID string) {
	p, ok := c.plans[key]
	if !ok {
		return
	}
	if monthlyID != "" {
		p.MonthlyPriceID = monthlyID
	}
	if yearlyID != "" {
		p.YearlyPriceID = yearlyID
	}
}
