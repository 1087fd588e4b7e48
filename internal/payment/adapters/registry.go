package adapters

import (
	"sort"

	"github.com/smallbiznis/possettle/internal/payment/domain"
)

// Registry holds the payment methods accepted at the till.
type Registry struct {
	policies map[domain.Method]domain.MethodPolicy
}

func NewRegistry(policies ...domain.MethodPolicy) *Registry {
	registry := &Registry{policies: map[domain.Method]domain.MethodPolicy{}}
	for _, policy := range policies {
		method := domain.NormalizeMethod(string(policy.Method))
		if method == "" {
			continue
		}
		policy.Method = method
		registry.policies[method] = policy
	}
	return registry
}

func NewDefaultRegistry() *Registry {
	return NewRegistry(domain.DefaultPolicies()...)
}

// Lookup resolves raw to a registered policy.
func (r *Registry) Lookup(raw string) (domain.MethodPolicy, error) {
	method := domain.NormalizeMethod(raw)
	if method == "" {
		return domain.MethodPolicy{}, domain.ErrMethodRequired
	}
	if r == nil {
		return domain.MethodPolicy{}, domain.ErrUnknownMethod
	}
	policy, ok := r.policies[method]
	if !ok {
		return domain.MethodPolicy{}, domain.ErrUnknownMethod
	}
	return policy, nil
}

func (r *Registry) GivesChange(method domain.Method) bool {
	if r == nil {
		return false
	}
	return r.policies[method].GivesChange
}

func (r *Registry) Methods() []domain.Method {
	if r == nil {
		return nil
	}
	out := make([]domain.Method, 0, len(r.policies))
	for method := range r.policies {
		out = append(out, method)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
