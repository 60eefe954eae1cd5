// Package subscription defines the subscription data model, plan catalog, and
// billing-driven status state machine for the feature access engine.
//
// A Subscription is keyed by user ID and carries a strictly increasing
// Revision counter bumped on every write. The revision serves two purposes:
// optimistic concurrency control for webhook-driven writes (Store.UpdateCAS)
// and stale-entry detection for cached gating decisions.
//
// # Status State Machine
//
// Subscription status changes only through the closed transition table in
// NextStatus:
//
//	Incomplete -> Trialing | Active
//	Trialing   -> Active | Canceled
//	Active     -> PastDue | Canceled
//	PastDue    -> Active | Unpaid
//	Unpaid     -> Active | Canceled
//
// Canceled is terminal. Any other (status, event) pair yields an
// InvalidTransitionError and leaves the subscription unchanged.
//
// # Plans
//
// Plans are immutable once referenced by an active subscription; changed
// limits ship as new plan IDs. The Catalog loads plans once from a
// PlansSource, validates them, and resolves feature entitlements:
//
//	catalog, err := subscription.NewCatalog(ctx, subscription.StaticPlans{
//		{ID: "free", Name: "Free", Tier: 0, Limits: map[subscription.Feature]int64{
//			subscription.FeatureExport: 3,
//		}},
//		{ID: "pro", Name: "Pro", Tier: 1, Limits: map[subscription.Feature]int64{
//			subscription.FeatureExport: subscription.Unlimited,
//		}},
//	})
//
// # Stores
//
// Store implementations must provide per-record compare-and-swap writes.
// MemoryStore serves tests and single-process use; PostgresStore implements
// CAS with a revision-guarded UPDATE over pgx.
package subscription
