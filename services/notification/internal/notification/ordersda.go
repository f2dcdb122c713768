package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/appetiteclub/apt"
)

// orderResource mirrors the order summary returned by the order service.
type orderResource struct {
	ID             string              `json:"id"`
	OrderID        string              `json:"order_id"`
	Status         string              `json:"status"`
	RestaurantName string              `json:"restaurant_name"`
	Restaurant     *restaurantResource `json:"restaurant"`
}

type restaurantResource struct {
	Name string `json:"name"`
}

func (o orderResource) snapshot() OrderSnapshot {
	id := o.ID
	if id == "" {
		id = o.OrderID
	}
	name := o.RestaurantName
	if o.Restaurant != nil && strings.TrimSpace(o.Restaurant.Name) != "" {
		name = o.Restaurant.Name
	}
	return OrderSnapshot{
		OrderID:        id,
		Status:         o.Status,
		RestaurantName: name,
	}
}

// OrderDataAccess implements OrderQuery against the order service.
type OrderDataAccess struct {
	client *apt.ServiceClient
}

func NewOrderDataAccess(client *apt.ServiceClient) *OrderDataAccess {
	return &OrderDataAccess{client: client}
}

func (da *OrderDataAccess) ListByUser(ctx context.Context, userID string) ([]OrderSnapshot, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}
	if userID == "" {
		return nil, fmt.Errorf("missing user id")
	}

	path := fmt.Sprintf("/users/%s/orders", url.PathEscape(userID))
	resp, err := da.client.Request(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var orders []orderResource
	if err := decodeSuccessResponse(resp, &orders); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	out := make([]OrderSnapshot, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.snapshot())
	}
	return out, nil
}

func decodeSuccessResponse(resp *apt.SuccessResponse, dest interface{}) error {
	if resp == nil {
		return errors.New("nil success response")
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, dest)
}
