package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mercanto/cartsync/internal/models"
)

func (c *Cli) runAdd(ctx context.Context, args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: cartsync add <item-id> <name> <price-cents> <quantity>")
	}

	price, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || price < 0 {
		return fmt.Errorf("invalid price: %q", args[2])
	}
	quantity, err := strconv.Atoi(args[3])
	if err != nil || quantity <= 0 {
		return fmt.Errorf("invalid quantity: %q", args[3])
	}

	event, err := c.coord.AddItem(ctx, models.ItemPayload{
		ItemID:   args[0],
		Name:     args[1],
		Price:    price,
		Quantity: quantity,
	})
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}

	c.io.Printf("Added %q x%d (event %s)\n", args[1], quantity, event.ID)
	return nil
}
