// Package modules implements the Module Validator (C16): the namespacing
// contract for the "modules" attribute namespace, and a strict YAML
// loader that rejects duplicate keys at any nesting depth, grounded on
// original_source/engine/modules/validator.go.
package modules

import "fmt"

// ValidationError describes a single namespacing violation.
type ValidationError struct {
	Module string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("module %q: %s", e.Module, e.Reason)
}

// ValidateNamespacing enforces the modules-dict contract: every value
// under the "modules" key must itself be a map (a namespace), never a
// flattened scalar or array. A module whose attributes leak directly
// into the top level defeats the purpose of namespacing and is rejected
// up front rather than silently merged.
func ValidateNamespacing(modulesMap map[string]interface{}) error {
	for name, value := range modulesMap {
		if _, ok := value.(map[string]interface{}); !ok {
			return &ValidationError{
				Module: name,
				Reason: fmt.Sprintf("expected a namespaced map, got %T", value),
			}
		}
	}
	return nil
}
