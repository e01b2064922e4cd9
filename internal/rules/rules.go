// Package rules implements the guard condition evaluator for workflow
// transitions. Evaluation is pure: no I/O, no panics, and every malformed
// input fails closed with a human-readable reason instead of an error.
package rules

import (
	"fmt"
	"reflect"
	"strconv"

	"flowtrack/backend/pkg/models"
)

// Evaluate applies a single guard condition to an entity data payload and
// reports whether it passed along with a human-facing reason. The reason
// is populated on every failure; some condition types (field_present,
// field_in) also return it on success as an explanation of the
// requirement.
func Evaluate(conditionType models.ConditionType, params map[string]any, data map[string]any) (bool, string) {
	field, _ := params["field"].(string)
	value := params["value"]
	requires, _ := params["requires"].(string)

	switch conditionType {
	case models.ConditionFieldPresent:
		if field == "" {
			return false, "Missing field parameter"
		}
		v := data[field]
		passed := v != nil && v != ""
		return passed, fmt.Sprintf("%s is required", field)

	case models.ConditionFieldEquals:
		if field == "" {
			return false, "Missing field parameter"
		}
		v := data[field]
		if requires != "" {
			// Conditional requirement: only when the field matches the
			// comparison value must the required field carry a truthy value.
			if equalValues(v, value) && !truthy(data[requires]) {
				return false, fmt.Sprintf("%s is required when %s is %v", requires, field, value)
			}
			return true, ""
		}
		if !equalValues(v, value) {
			return false, fmt.Sprintf("%s must equal %v", field, value)
		}
		return true, ""

	case models.ConditionFieldIn:
		values := listParam(params)
		if field == "" || values == nil {
			return false, "Missing field or values"
		}
		v := data[field]
		passed := false
		for _, allowed := range values {
			if equalValues(v, allowed) {
				passed = true
				break
			}
		}
		return passed, fmt.Sprintf("%s must be one of %v", field, values)

	case models.ConditionFieldGT, models.ConditionFieldGTE, models.ConditionFieldLT, models.ConditionFieldLTE:
		if field == "" {
			return false, "Missing field parameter"
		}
		v, ok := data[field]
		if !ok || v == nil {
			return false, fmt.Sprintf("%s is required", field)
		}
		vNum, okV := toFloat(v)
		cmpNum, okC := toFloat(value)
		if !okV || !okC {
			return false, fmt.Sprintf("%s must be a number", field)
		}
		op := comparisonOp(conditionType)
		if !compare(vNum, cmpNum, conditionType) {
			return false, fmt.Sprintf("%s must be %s %v", field, op, value)
		}
		return true, ""
	}

	return false, fmt.Sprintf("Unsupported condition type: %s", conditionType)
}

// listParam accepts the allowed set under either "values" or "options".
func listParam(params map[string]any) []any {
	if v, ok := params["values"].([]any); ok {
		return v
	}
	if v, ok := params["options"].([]any); ok {
		return v
	}
	return nil
}

// equalValues compares two payload values. Numbers compare by value
// regardless of Go representation (JSON decoding yields float64, stored
// params may carry ints), but strings never coerce: "5" and 5 are
// distinct values.
func equalValues(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		aNum, _ := toFloat(a)
		bNum, _ := toFloat(b)
		return aNum == bNum
	}
	return reflect.DeepEqual(a, b)
}

// isNumber reports whether v is a numeric or bool value. Strings are
// excluded even when they parse as numbers.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint, uint64, bool:
		return true
	}
	return false
}

// truthy mirrors the falsiness rules applied to "requires" fields: nil,
// empty string, false and numeric zero all count as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		if n, ok := toFloat(v); ok {
			return n != 0
		}
		return true
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func comparisonOp(conditionType models.ConditionType) string {
	switch conditionType {
	case models.ConditionFieldGT:
		return ">"
	case models.ConditionFieldGTE:
		return ">="
	case models.ConditionFieldLT:
		return "<"
	default:
		return "<="
	}
}

func compare(v, cmp float64, conditionType models.ConditionType) bool {
	switch conditionType {
	case models.ConditionFieldGT:
		return v > cmp
	case models.ConditionFieldGTE:
		return v >= cmp
	case models.ConditionFieldLT:
		return v < cmp
	default:
		return v <= cmp
	}
}
