package constants

// InstanceStatus is the lifecycle status of a workflow instance.
type InstanceStatus string

const (
	InstanceStatusActive    InstanceStatus = "ACTIVE"
	InstanceStatusCompleted InstanceStatus = "COMPLETED"
	InstanceStatusRejected  InstanceStatus = "REJECTED"
)

// IsValidInstanceStatus reports whether s is a known instance status.
func IsValidInstanceStatus(s string) bool {
	switch InstanceStatus(s) {
	case InstanceStatusActive, InstanceStatusCompleted, InstanceStatusRejected:
		return true
	}
	return false
}

// AssignmentStatus is the lifecycle status of a step assignment row.
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "PENDING"
	AssignmentStatusCompleted AssignmentStatus = "COMPLETED"
)

// ActionType identifies what an actor did at a step.
type ActionType string

const (
	ActionApprove ActionType = "APPROVE"
	ActionReject  ActionType = "REJECT"
	ActionModify  ActionType = "MODIFY"
)

// IsValidActionType reports whether s is a known action type.
func IsValidActionType(s string) bool {
	switch ActionType(s) {
	case ActionApprove, ActionReject, ActionModify:
		return true
	}
	return false
}

// ConditionType is the closed set of transition predicate kinds.
type ConditionType string

const (
	// ConditionExpression evaluates an expr program against the action context.
	ConditionExpression ConditionType = "expression"
	// ConditionEquals compares one field of the action's data payload to a
	// fixed value.
	ConditionEquals ConditionType = "equals"
)

// IsValidConditionType reports whether s is a known condition type.
func IsValidConditionType(s string) bool {
	switch ConditionType(s) {
	case ConditionExpression, ConditionEquals:
		return true
	}
	return false
}
