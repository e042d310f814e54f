package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runRemove(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: cartsync remove <item-id>")
	}

	event, err := c.coord.RemoveItem(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	c.io.Printf("Removed %s (event %s)\n", args[0], event.ID)
	return nil
}
