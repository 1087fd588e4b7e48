package domain

// MethodPolicy describes how the till treats a payment method.
type MethodPolicy struct {
	Method Method
	// RequiresReference is set for methods that carry an authorization or
	// transfer reference.
	RequiresReference bool
	// GivesChange is set for methods that can hand back change.
	GivesChange bool
}

func DefaultPolicies() []MethodPolicy {
	return []MethodPolicy{
		{Method: MethodCash, GivesChange: true},
		{Method: MethodCard, RequiresReference: true},
		{Method: MethodSinpe, RequiresReference: true},
	}
}
