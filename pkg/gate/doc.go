// Package gate implements the feature access decision engine.
//
// CheckAccess resolves a (user, feature) pair to a Decision by combining the
// subscription's status, the plan's entitlement, and the current period's
// usage counter. Decisions are cached in the two-tier cache tagged with the
// subscription revision they were computed from; a cached decision is served
// only while that revision is still current, so a webhook-driven subscription
// change forces a recompute on the very next check even if the TTL has not
// elapsed.
//
// The read path never writes to the authoritative stores and acquires no
// locks, so the gate scales horizontally without coordination.
//
//	decision, err := gateSvc.CheckAccess(ctx, userID, subscription.FeatureExport)
//	if err != nil {
//		return err // store unreachable
//	}
//	if !decision.Granted {
//		// decision.Reason, decision.UpgradeHint
//	}
package gate
