package passwords

import "lumacms.org/internal/validation"

// Policy is an ordered set of validators. A candidate password satisfies the
// policy only when every validator returns no error; evaluation collects all
// violations instead of stopping at the first.
type Policy struct {
	validators []Validator
}

func NewPolicy(validators ...Validator) *Policy {
	return &Policy{validators: validators}
}

// Validate evaluates every validator in order and returns the full list of
// violations.
func (p *Policy) Validate(ctx NewPasswordContext) []validation.Error {
	if ctx.PropertyName == "" {
		ctx.PropertyName = "Password"
	}
	var errs []validation.Error
	for _, v := range p.validators {
		if err := v.Validate(ctx); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

// Criteria lists each validator's requirement, for presenting to users.
func (p *Policy) Criteria() []string {
	out := make([]string, len(p.validators))
	for i, v := range p.validators {
		out[i] = v.Criteria()
	}
	return out
}

// DefaultPolicy mirrors the built-in account rules: 8..300 characters and
// not equal to the current password.
func DefaultPolicy() *Policy {
	min, err := NewMinLengthValidator(8)
	if err != nil {
		panic(err)
	}
	max, err := NewMaxLengthValidator(300)
	if err != nil {
		panic(err)
	}
	return NewPolicy(min, max, NewNotCurrentPasswordValidator())
}
