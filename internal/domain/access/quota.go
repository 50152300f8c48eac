package access

import "fmt"

// QuotaScope decides which count is compared with a plan's call limit.
type QuotaScope string

const (
	// QuotaPerEndpoint gives each endpoint its own call_limit budget.
	QuotaPerEndpoint QuotaScope = "per_endpoint"
	// QuotaPerPlan shares one call_limit budget across all endpoints.
	QuotaPerPlan QuotaScope = "per_plan"
)

// ParseQuotaScope maps a config value to a scope. Empty means per endpoint.
func ParseQuotaScope(s string) (QuotaScope, error) {
	switch QuotaScope(s) {
	case "", QuotaPerEndpoint:
		return QuotaPerEndpoint, nil
	case QuotaPerPlan:
		return QuotaPerPlan, nil
	default:
		return "", fmt.Errorf("unknown quota scope %q", s)
	}
}
