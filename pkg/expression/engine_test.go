package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngine_Evaluate(t *testing.T) {
	engine := NewEngine()

	result, err := engine.Evaluate("amount > 1000", map[string]interface{}{
		"amount": 2500,
	})
	assert.NoError(t, err)
	assert.Equal(t, true, result)

	result, err = engine.Evaluate("entity_type == 'invoice'", map[string]interface{}{
		"entity_type": "invoice",
	})
	assert.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestEngine_EvaluateBool(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name       string
		expression string
		env        map[string]interface{}
		expected   bool
		shouldErr  bool
	}{
		{"true comparison", "amount >= 100", map[string]interface{}{"amount": 100}, true, false},
		{"false comparison", "amount >= 100", map[string]interface{}{"amount": 99}, false, false},
		{"boolean and", "amount > 50 && urgent", map[string]interface{}{"amount": 60, "urgent": true}, true, false},
		{"non-boolean result", "amount + 1", map[string]interface{}{"amount": 1}, false, true},
		{"undefined variable is nil", "missing == nil", map[string]interface{}{}, true, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := engine.EvaluateBool(tc.expression, tc.env)
			if tc.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, result)
			}
		})
	}
}

func TestEngine_Compile(t *testing.T) {
	engine := NewEngine()

	assert.NoError(t, engine.Compile("data.amount > 1000"))
	assert.Error(t, engine.Compile("amount >"), "incomplete expression should fail compilation")
}

func TestEngine_ProgramCache(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Evaluate("1 + 1 == 2", nil)
	assert.NoError(t, err)

	engine.mu.RLock()
	_, cached := engine.programCache["1 + 1 == 2"]
	engine.mu.RUnlock()
	assert.True(t, cached, "program should be cached after first evaluation")
}
