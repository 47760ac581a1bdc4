package domain

import (
	"encoding/json"
	"fmt"

	"github.com/flowgate/backend/pkg/constants"
)

// Condition is the parsed form of a transition's condition payload. The
// kind set is closed: an unknown kind fails at parse time, never at
// evaluation time.
type Condition struct {
	Type constants.ConditionType

	// Expression is set for ConditionExpression.
	Expression string

	// Field and Value are set for ConditionEquals.
	Field string
	Value interface{}
}

type expressionPayload struct {
	Expression string `json:"expression"`
}

type equalsPayload struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// ParseCondition decodes a condition type + JSON payload pair as stored on a
// transition row. Both nil means the transition is unconditioned and a nil
// Condition is returned.
func ParseCondition(conditionType, conditionValue *string) (*Condition, error) {
	if conditionType == nil || *conditionType == "" {
		return nil, nil
	}
	if !constants.IsValidConditionType(*conditionType) {
		return nil, fmt.Errorf("unknown condition type %q", *conditionType)
	}
	if conditionValue == nil || *conditionValue == "" {
		return nil, fmt.Errorf("condition type %q requires a condition value", *conditionType)
	}

	switch constants.ConditionType(*conditionType) {
	case constants.ConditionExpression:
		var payload expressionPayload
		if err := json.Unmarshal([]byte(*conditionValue), &payload); err != nil {
			return nil, fmt.Errorf("malformed expression condition payload: %w", err)
		}
		if payload.Expression == "" {
			return nil, fmt.Errorf("expression condition payload has no expression")
		}
		return &Condition{Type: constants.ConditionExpression, Expression: payload.Expression}, nil

	case constants.ConditionEquals:
		var payload equalsPayload
		if err := json.Unmarshal([]byte(*conditionValue), &payload); err != nil {
			return nil, fmt.Errorf("malformed equals condition payload: %w", err)
		}
		if payload.Field == "" {
			return nil, fmt.Errorf("equals condition payload has no field")
		}
		return &Condition{Type: constants.ConditionEquals, Field: payload.Field, Value: payload.Value}, nil
	}

	return nil, fmt.Errorf("unknown condition type %q", *conditionType)
}
