package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flowtrack/backend/pkg/models"
)

func TestFieldPresent(t *testing.T) {
	passed, reason := Evaluate(models.ConditionFieldPresent, map[string]any{"field": "name"}, map[string]any{"name": "A"})
	assert.True(t, passed)
	assert.Equal(t, "name is required", reason)

	passed, reason = Evaluate(models.ConditionFieldPresent, map[string]any{"field": "name"}, map[string]any{"name": ""})
	assert.False(t, passed)
	assert.Equal(t, "name is required", reason)

	passed, reason = Evaluate(models.ConditionFieldPresent, map[string]any{"field": "name"}, map[string]any{})
	assert.False(t, passed)
	assert.Equal(t, "name is required", reason)
}

func TestFieldPresentMissingParam(t *testing.T) {
	passed, reason := Evaluate(models.ConditionFieldPresent, map[string]any{}, map[string]any{"name": "A"})
	assert.False(t, passed)
	assert.Equal(t, "Missing field parameter", reason)
}

func TestFieldEquals(t *testing.T) {
	params := map[string]any{"field": "priority", "value": "High"}

	passed, reason := Evaluate(models.ConditionFieldEquals, params, map[string]any{"priority": "High"})
	assert.True(t, passed)
	assert.Equal(t, "", reason)

	passed, reason = Evaluate(models.ConditionFieldEquals, params, map[string]any{"priority": "Low"})
	assert.False(t, passed)
	assert.Equal(t, "priority must equal High", reason)
}

func TestFieldEqualsNumericRepresentations(t *testing.T) {
	// JSON decoding yields float64; stored params may carry ints.
	passed, _ := Evaluate(models.ConditionFieldEquals,
		map[string]any{"field": "count", "value": 3},
		map[string]any{"count": float64(3)})
	assert.True(t, passed)
}

func TestFieldEqualsDoesNotCoerceStrings(t *testing.T) {
	// "5" and 5 are distinct values; only same-kind numbers compare equal.
	passed, reason := Evaluate(models.ConditionFieldEquals,
		map[string]any{"field": "count", "value": 5},
		map[string]any{"count": "5"})
	assert.False(t, passed)
	assert.Equal(t, "count must equal 5", reason)

	passed, _ = Evaluate(models.ConditionFieldEquals,
		map[string]any{"field": "count", "value": "5"},
		map[string]any{"count": float64(5)})
	assert.False(t, passed)
}

func TestFieldEqualsWithRequires(t *testing.T) {
	params := map[string]any{"field": "priority", "value": "High", "requires": "manager_approval"}

	passed, reason := Evaluate(models.ConditionFieldEquals, params,
		map[string]any{"priority": "High", "manager_approval": false})
	assert.False(t, passed)
	assert.Equal(t, "manager_approval is required when priority is High", reason)

	passed, reason = Evaluate(models.ConditionFieldEquals, params,
		map[string]any{"priority": "Low"})
	assert.True(t, passed)
	assert.Equal(t, "", reason)

	passed, _ = Evaluate(models.ConditionFieldEquals, params,
		map[string]any{"priority": "High", "manager_approval": true})
	assert.True(t, passed)

	// Absent required field blocks just like a falsy one.
	passed, _ = Evaluate(models.ConditionFieldEquals, params,
		map[string]any{"priority": "High"})
	assert.False(t, passed)
}

func TestFieldIn(t *testing.T) {
	params := map[string]any{"field": "dept", "values": []any{"HR", "IT"}}

	passed, reason := Evaluate(models.ConditionFieldIn, params, map[string]any{"dept": "IT"})
	assert.True(t, passed)
	assert.Equal(t, "dept must be one of [HR IT]", reason)

	passed, reason = Evaluate(models.ConditionFieldIn, params, map[string]any{"dept": "Sales"})
	assert.False(t, passed)
	assert.Equal(t, "dept must be one of [HR IT]", reason)
}

func TestFieldInOptionsAlias(t *testing.T) {
	params := map[string]any{"field": "dept", "options": []any{"HR", "IT"}}
	passed, _ := Evaluate(models.ConditionFieldIn, params, map[string]any{"dept": "HR"})
	assert.True(t, passed)
}

func TestFieldInMissingValues(t *testing.T) {
	passed, reason := Evaluate(models.ConditionFieldIn, map[string]any{"field": "dept"}, map[string]any{"dept": "HR"})
	assert.False(t, passed)
	assert.Equal(t, "Missing field or values", reason)
}

func TestFieldNumericComparisons(t *testing.T) {
	passed, reason := Evaluate(models.ConditionFieldGT, map[string]any{"field": "score", "value": 5}, map[string]any{"score": 7})
	assert.True(t, passed)
	assert.Equal(t, "", reason)

	passed, reason = Evaluate(models.ConditionFieldGTE, map[string]any{"field": "score", "value": 5}, map[string]any{"score": 5})
	assert.True(t, passed)
	assert.Equal(t, "", reason)

	passed, reason = Evaluate(models.ConditionFieldLT, map[string]any{"field": "score", "value": 5}, map[string]any{"score": 5})
	assert.False(t, passed)
	assert.Equal(t, "score must be < 5", reason)

	passed, reason = Evaluate(models.ConditionFieldLTE, map[string]any{"field": "score", "value": 5}, map[string]any{"score": 5})
	assert.True(t, passed)
	assert.Equal(t, "", reason)
}

func TestFieldNumericFailsClosed(t *testing.T) {
	passed, reason := Evaluate(models.ConditionFieldGT, map[string]any{"field": "score", "value": 5}, map[string]any{})
	assert.False(t, passed)
	assert.Equal(t, "score is required", reason)

	passed, reason = Evaluate(models.ConditionFieldGT, map[string]any{"field": "score", "value": 5}, map[string]any{"score": "not-a-number"})
	assert.False(t, passed)
	assert.Equal(t, "score must be a number", reason)

	passed, reason = Evaluate(models.ConditionFieldGT, map[string]any{"field": "score", "value": "bogus"}, map[string]any{"score": 7})
	assert.False(t, passed)
	assert.Equal(t, "score must be a number", reason)
}

func TestFieldNumericStringCoercion(t *testing.T) {
	passed, _ := Evaluate(models.ConditionFieldGTE, map[string]any{"field": "score", "value": "5"}, map[string]any{"score": "6.5"})
	assert.True(t, passed)
}

func TestUnsupportedCondition(t *testing.T) {
	passed, reason := Evaluate(models.ConditionType("unknown"), map[string]any{}, map[string]any{})
	assert.False(t, passed)
	assert.Equal(t, "Unsupported condition type: unknown", reason)
}
