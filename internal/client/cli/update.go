package cli

import (
	"context"
	"fmt"
	"strconv"
)

func (c *Cli) runUpdate(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: cartsync update <item-id> <quantity>")
	}

	quantity, err := strconv.Atoi(args[1])
	if err != nil || quantity < 0 {
		return fmt.Errorf("invalid quantity: %q", args[1])
	}

	event, err := c.coord.UpdateQuantity(ctx, args[0], quantity)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	c.io.Printf("Updated %s to quantity %d (event %s)\n", args[0], quantity, event.ID)
	return nil
}
