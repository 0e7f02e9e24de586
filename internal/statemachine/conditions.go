package statemachine

import (
	"fmt"
	"reflect"
)

// evaluateConditions matches a flat key→expected map against the caller
// context with strict equality. The first mismatch denies with a reason
// naming the key and both values. Nested conditions, ranges and operators
// other than equality are deliberately unsupported.
func evaluateConditions(conditions, context map[string]any) Result {
	for key, expected := range conditions {
		actual := context[key]
		if !reflect.DeepEqual(actual, expected) {
			return Result{
				Allowed: false,
				Reason:  fmt.Sprintf("Condition failed: %s = %v, expected %v", key, actual, expected),
			}
		}
	}
	return Result{Allowed: true, Reason: "conditions met"}
}
