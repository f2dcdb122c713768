package notification

import (
	"fmt"
	"strings"

	"github.com/appetiteclub/ordernotify/pkg/enums/orderstatus"
)

// Change is a status observation normalized by either channel.
type Change struct {
	OrderID        string
	Status         orderstatus.Status
	RestaurantName string
	Reason         string
}

type copyTemplate struct {
	kind    Type
	title   string
	message func(restaurant, reason string) string
}

// copies is the only place where user-facing text per status lives. Push and
// poll both go through Compose, so a transition reads the same whichever
// channel saw it first.
var copies = map[orderstatus.Status]copyTemplate{
	orderstatus.Statuses.Confirmed: {
		kind:  TypeOrderAccepted,
		title: "Order accepted",
		message: func(restaurant, _ string) string {
			return fmt.Sprintf("%s accepted your order.", subject(restaurant))
		},
	},
	orderstatus.Statuses.Preparing: {
		kind:  TypeOrderConfirmed,
		title: "Order in preparation",
		message: func(restaurant, _ string) string {
			return fmt.Sprintf("%s is preparing your order.", subject(restaurant))
		},
	},
	orderstatus.Statuses.Ready: {
		kind:  TypeOrderConfirmed,
		title: "Order ready",
		message: func(restaurant, _ string) string {
			return fmt.Sprintf("Your order from %s is ready for delivery.", object(restaurant))
		},
	},
	orderstatus.Statuses.Completed: {
		kind:  TypeOrderCompleted,
		title: "Order completed",
		message: func(restaurant, _ string) string {
			return fmt.Sprintf("Your order from %s has been delivered. Enjoy!", object(restaurant))
		},
	},
	orderstatus.Statuses.Cancelled: {
		kind:  TypeOrderRejected,
		title: "Order rejected",
		message: func(restaurant, reason string) string {
			msg := fmt.Sprintf("%s could not accept your order.", subject(restaurant))
			if reason = strings.TrimSpace(reason); reason != "" {
				msg += " Reason: " + reason
			}
			return msg
		},
	},
}

// predecessors lists, per current status, the previous statuses a poll cycle
// accepts as a forward move. Cancelled is handled in Forward.
var predecessors = map[orderstatus.Status][]orderstatus.Status{
	orderstatus.Statuses.Confirmed: {orderstatus.Statuses.Pending},
	orderstatus.Statuses.Preparing: {orderstatus.Statuses.Confirmed, orderstatus.Statuses.Pending},
	orderstatus.Statuses.Ready:     {orderstatus.Statuses.Preparing, orderstatus.Statuses.Confirmed},
	orderstatus.Statuses.Completed: {orderstatus.Statuses.Ready, orderstatus.Statuses.Preparing, orderstatus.Statuses.Delivering},
}

// Compose returns the notification for a change, or false when the status
// has no user-facing copy.
func Compose(c Change) (Input, bool) {
	tmpl, ok := copies[c.Status]
	if !ok {
		return Input{}, false
	}

	restaurant := strings.TrimSpace(c.RestaurantName)
	return Input{
		Type:           tmpl.kind,
		Title:          tmpl.title,
		Message:        tmpl.message(restaurant, c.Reason),
		OrderID:        c.OrderID,
		RestaurantName: restaurant,
	}, true
}

// Forward reports whether prev -> curr is a transition the poll channel
// notifies about. Skipped intermediate statuses are tolerated, backward moves
// are not.
func Forward(prev, curr orderstatus.Status) bool {
	if prev == curr {
		return false
	}
	if curr == orderstatus.Statuses.Cancelled {
		return true
	}
	if prev.Terminal() {
		return false
	}
	for _, p := range predecessors[curr] {
		if p == prev {
			return true
		}
	}
	return false
}

// normalizeStatus parses a wire status. Unknown values are kept, lowercased,
// so the registry still tracks them; they never match a copy or a transition.
func normalizeStatus(raw string) orderstatus.Status {
	if s, ok := orderstatus.Parse(raw); ok {
		return s
	}
	return orderstatus.Status{Name: strings.ToLower(strings.TrimSpace(raw))}
}

func subject(restaurant string) string {
	if restaurant == "" {
		return "The restaurant"
	}
	return restaurant
}

func object(restaurant string) string {
	if restaurant == "" {
		return "the restaurant"
	}
	return restaurant
}
