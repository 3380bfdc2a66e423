package statemachine

import "branch-order-api/models"

// Chain is the forward lifecycle of an order envelope. Reaching the
// last element deletes the envelope instead of writing a status.
var Chain = []models.OrderStatus{
	models.StatusPending,
	models.StatusInProcess,
	models.StatusReady,
	models.StatusOnTheWay,
	models.StatusReceived,
}

var validTargets = func() map[models.OrderStatus]bool {
	m := make(map[models.OrderStatus]bool, len(Chain))
	for _, s := range Chain {
		m[s] = true
	}
	return m
}()

// ValidTarget checks membership in the five named states. Transition
// requests name a target directly; adjacency is intentionally not
// enforced, so staff may jump ahead (e.g. pending → onTheWay).
func ValidTarget(status models.OrderStatus) bool {
	return validTargets[status]
}

// Terminal reports whether reaching status deletes the envelope.
func Terminal(status models.OrderStatus) bool {
	return status == models.StatusReceived
}

// NextOf returns the natural successor in the forward chain, or ""
// for the terminal state. Used for documentation only.
func NextOf(status models.OrderStatus) models.OrderStatus {
	for i, s := range Chain {
		if s == status && i+1 < len(Chain) {
			return Chain[i+1]
		}
	}
	return ""
}

// Step describes one hop of the lifecycle for the docs endpoint.
type Step struct {
	From models.OrderStatus `json:"from"`
	To   models.OrderStatus `json:"to"`
}

// Describe returns the full forward chain for documentation.
func Describe() []Step {
	steps := make([]Step, 0, len(Chain)-1)
	for i := 0; i+1 < len(Chain); i++ {
		steps = append(steps, Step{From: Chain[i], To: Chain[i+1]})
	}
	return steps
}
