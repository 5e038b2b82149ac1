// Package fulfillment holds the order state machine. Status and payment status
// are tracked as two axes of one State and only move together through Next.
package fulfillment

import (
	"digital-storefront/internal/apperr"
	"digital-storefront/internal/model"
)

type State struct {
	Status  model.OrderStatus
	Payment model.PaymentStatus
}

func (s State) String() string {
	return string(s.Status) + "/" + string(s.Payment)
}

func StateOf(o *model.Order) State {
	return State{Status: o.Status, Payment: o.PaymentStatus}
}

// Initial is the state every order is created in.
var Initial = State{Status: model.OrderStatusPending, Payment: model.PaymentStatusUnpaid}

type Event string

const (
	EventPaymentConfirmed Event = "payment_confirmed"
	EventPaymentFailed    Event = "payment_failed"
	EventComplete         Event = "complete"
	EventDecline          Event = "decline"
	EventCancel           Event = "cancel"
)

func IsTerminal(status model.OrderStatus) bool {
	switch status {
	case model.OrderStatusCompleted, model.OrderStatusDeclined, model.OrderStatusCancelled:
		return true
	}
	return false
}

// Next returns the state reached by applying ev to from, or an invalid
// transition error when the edge does not exist.
func Next(from State, ev Event) (State, error) {
	if IsTerminal(from.Status) {
		return from, apperr.InvalidTransition("order is %s, no further transitions allowed", from.Status)
	}

	switch ev {
	case EventPaymentConfirmed:
		// a failed attempt may be retried through the gateway
		if from.Status == model.OrderStatusPending && from.Payment != model.PaymentStatusPaid {
			return State{Status: model.OrderStatusProcessing, Payment: model.PaymentStatusPaid}, nil
		}
	case EventPaymentFailed:
		if from.Status == model.OrderStatusPending && from.Payment != model.PaymentStatusPaid {
			return State{Status: model.OrderStatusPending, Payment: model.PaymentStatusFailed}, nil
		}
	case EventComplete:
		if from.Status == model.OrderStatusProcessing && from.Payment == model.PaymentStatusPaid {
			return State{Status: model.OrderStatusCompleted, Payment: model.PaymentStatusPaid}, nil
		}
	case EventDecline:
		if from.Status == model.OrderStatusPending || from.Status == model.OrderStatusProcessing {
			return State{Status: model.OrderStatusDeclined, Payment: from.Payment}, nil
		}
	case EventCancel:
		return State{Status: model.OrderStatusCancelled, Payment: from.Payment}, nil
	default:
		return from, apperr.Validation("unknown order event %q", ev)
	}

	return from, apperr.InvalidTransition("cannot %s an order in state %s", ev, from)
}

// AllowsDelivery reports whether delivered content may exist in a state.
func AllowsDelivery(s State) bool {
	return s.Status == model.OrderStatusCompleted
}
