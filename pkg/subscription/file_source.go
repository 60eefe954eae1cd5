package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"os"
)

// FilePlans is a PlansSource reading the plan list from a JSON file, so the
// catalog can be updated by redeploying configuration instead of code.
type FilePlans struct {
	Path string
}

// Load reads and decodes the plan file. Validation happens in NewCatalog.
func (f FilePlans) Load(_ context.Context) (map[string]Plan, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var plans []Plan
	if err := json.Unmarshal(raw, &plans); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	out := make(map[string]Plan, len(plans))
	for _, p := range plans {
		out[p.ID] = p
	}
	return out, nil
}
