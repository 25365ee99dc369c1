package validation

// Validatable declares per-field rules for an operation payload. Rules run in
// declaration order.
type Validatable interface {
	ValidationRules() []Rule
}

// ObjectValidatable declares cross-field rules evaluated after field rules.
type ObjectValidatable interface {
	ObjectRules() []ObjectRule
}

// Validate runs field rules first, then object rules whose dependent fields
// all passed. Every discovered error is aggregated; nothing short-circuits.
func Validate(subject any) []Error {
	var errs []Error
	failed := map[string]bool{}

	if v, ok := subject.(Validatable); ok {
		for _, rule := range v.ValidationRules() {
			if err := rule.Validate(); err != nil {
				errs = append(errs, *err)
				failed[rule.Field()] = true
			}
		}
	}

	if v, ok := subject.(ObjectValidatable); ok {
	rules:
		for _, rule := range v.ObjectRules() {
			for _, field := range rule.DependsOn {
				if failed[field] {
					continue rules
				}
			}
			errs = append(errs, rule.Check()...)
		}
	}

	return errs
}
