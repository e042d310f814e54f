package models

import (
	"sort"
	"time"
)

// CartItem is one line of the materialized cart state.
type CartItem struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"` // cents
	Quantity int    `json:"quantity"`
}

// CartState is the event-sourced cart: state derived by replaying the
// ordered event log rather than persisting only the latest snapshot.
// Idempotence is tracked by event id, not content, so replaying an
// acknowledged event is always a no-op.
type CartState struct {
	CartID  string              `json:"cart_id"`
	Items   map[string]CartItem `json:"items"`
	Applied map[string]struct{} `json:"applied"`
	Version int64               `json:"version"`
}

// NewCartState creates an empty cart for the given cart identity.
func NewCartState(cartID string) *CartState {
	return &CartState{
		CartID:  cartID,
		Items:   make(map[string]CartItem),
		Applied: make(map[string]struct{}),
	}
}

// Apply folds a single event into the cart. Returns false without touching
// state when the event id has been seen before.
func (c *CartState) Apply(e *SyncEvent) bool {
	if _, seen := c.Applied[e.ID]; seen {
		return false
	}
	c.Applied[e.ID] = struct{}{}

	switch e.Type {
	case EventAdd:
		item, ok := c.Items[e.Item.ItemID]
		if !ok {
			item = CartItem{ItemID: e.Item.ItemID, Name: e.Item.Name, Price: e.Item.Price}
		}
		item.Quantity += e.Item.Quantity
		c.Items[e.Item.ItemID] = item
	case EventUpdate, EventMerge:
		if e.Item.Quantity <= 0 {
			delete(c.Items, e.Item.ItemID)
			break
		}
		item, ok := c.Items[e.Item.ItemID]
		if !ok {
			item = CartItem{ItemID: e.Item.ItemID, Name: e.Item.Name, Price: e.Item.Price}
		}
		item.Quantity = e.Item.Quantity
		if e.Item.Name != "" {
			item.Name = e.Item.Name
		}
		if e.Item.Price != 0 {
			item.Price = e.Item.Price
		}
		c.Items[e.Item.ItemID] = item
	case EventRemove:
		delete(c.Items, e.Item.ItemID)
	case EventClear:
		c.Items = make(map[string]CartItem)
	}
	return true
}

// ApplyAll folds a batch in order and returns how many events actually
// mutated state.
func (c *CartState) ApplyAll(events []SyncEvent) int {
	applied := 0
	for i := range events {
		if c.Apply(&events[i]) {
			applied++
		}
	}
	return applied
}

// ItemList returns the cart items sorted by item id for stable display.
func (c *CartState) ItemList() []CartItem {
	items := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items
}

// TotalAmount returns the total price of all items in cents.
func (c *CartState) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// ItemCount returns the total quantity across all items.
func (c *CartState) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Clone creates a deep copy of the cart state.
func (c *CartState) Clone() *CartState {
	clone := &CartState{
		CartID:  c.CartID,
		Items:   make(map[string]CartItem, len(c.Items)),
		Applied: make(map[string]struct{}, len(c.Applied)),
		Version: c.Version,
	}
	for k, v := range c.Items {
		clone.Items[k] = v
	}
	for k := range c.Applied {
		clone.Applied[k] = struct{}{}
	}
	return clone
}

// DeviceClass constants for DeviceRecord.
const (
	DeviceClassWeb     = "web"
	DeviceClassMobile  = "mobile"
	DeviceClassDesktop = "desktop"
)

// DeviceRecord is the bookkeeping entry for a device sharing a cart
// identity. Created on first contact, refreshed on heartbeat, pruned after
// an inactivity window.
type DeviceRecord struct {
	DeviceID    string    `json:"device_id"`
	DisplayName string    `json:"display_name"`
	DeviceClass string    `json:"device_class"`
	LastSeen    time.Time `json:"last_seen"`
	Online      bool      `json:"online"`
}
