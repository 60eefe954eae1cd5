package subscription

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Plan describes a subscription tier and its feature entitlements.
// Plans are immutable once referenced by an active subscription; pricing or
// limit changes are rolled out as new plan IDs.
type Plan struct {
	ID       string            `json:"id"` // provider's price ID (e.g., price_pro_monthly)
	Name     string            `json:"name"`
	Tier     int               `json:"tier"`     // ordering for upgrade hints; higher is better
	Features []Feature         `json:"features"` // boolean entitlements, unmetered
	Limits   map[Feature]int64 `json:"limits"`   // metered entitlements; Unlimited disables metering
	Price    Money             `json:"price"`
	Interval BillingInterval   `json:"interval"`
}

// EntitlementFor resolves the plan's grant for a feature.
// A feature listed in Limits is metered against its numeric limit (Unlimited
// turns metering off); a feature listed only in Features is an unmetered
// boolean grant. A limit of zero means the feature is not entitled.
func (p Plan) EntitlementFor(f Feature) Entitlement {
	if limit, ok := p.Limits[f]; ok {
		if limit == Unlimited {
			return Entitlement{Entitled: true, Metered: false, Limit: Unlimited}
		}
		if limit == 0 {
			return Entitlement{}
		}
		return Entitlement{Entitled: true, Metered: true, Limit: limit}
	}
	if slices.Contains(p.Features, f) {
		return Entitlement{Entitled: true, Metered: false, Limit: Unlimited}
	}
	return Entitlement{}
}

// PlansSource defines how plans are loaded into the catalog.
type PlansSource interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

// StaticPlans is a PlansSource backed by a fixed plan list, useful for
// configuration-driven catalogs and tests.
type StaticPlans []Plan

func (s StaticPlans) Load(_ context.Context) (map[string]Plan, error) {
	plans := make(map[string]Plan, len(s))
	for _, p := range s {
		plans[p.ID] = p
	}
	return plans, nil
}

// Catalog is an immutable, validated plan lookup table. It is built once at
// service construction; thread-safety relies on no runtime modification.
type Catalog struct {
	plans map[string]Plan
}

// NewCatalog loads and validates plans from the given source.
func NewCatalog(ctx context.Context, src PlansSource) (*Catalog, error) {
	if src == nil {
		panic("subscription: PlansSource is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	return &Catalog{plans: plans}, nil
}

// Plan returns the plan for the given ID.
func (c *Catalog) Plan(planID string) (Plan, error) {
	plan, ok := c.plans[planID]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return plan, nil
}

// EntitlementFor resolves a feature entitlement through a plan ID.
func (c *Catalog) EntitlementFor(planID string, f Feature) (Entitlement, error) {
	plan, err := c.Plan(planID)
	if err != nil {
		return Entitlement{}, err
	}
	return plan.EntitlementFor(f), nil
}

// MinimumTierFor returns the name of the lowest-tier plan that entitles the
// feature, used as the upgrade hint on denied access. Returns empty string
// when no plan grants it.
func (c *Catalog) MinimumTierFor(f Feature) string {
	var best *Plan
	for id := range c.plans {
		plan := c.plans[id]
		if !plan.EntitlementFor(f).Entitled {
			continue
		}
		if best == nil || plan.Tier < best.Tier {
			best = &plan
		}
	}
	if best == nil {
		return ""
	}
	return best.Name
}

// validatePlans ensures plan configurations are internally consistent.
// Catches common configuration errors early to prevent runtime issues.
func validatePlans(plans map[string]Plan) error {
	for planID, plan := range plans {
		if plan.ID != planID {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan ID mismatch: map key %s != plan.ID %s", planID, plan.ID))
		}

		for feature, limit := range plan.Limits {
			if limit < Unlimited {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("plan %s has invalid limit for %s: %d", planID, feature, limit))
			}
		}
	}
	return nil
}
