package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Sync Status ===")
	c.io.Println()

	c.io.Printf("Cart:   %s\n", c.cartID)
	c.io.Printf("Status: %s\n", c.coord.Status())

	pending, err := c.eventLog.PendingCount(ctx, c.cartID)
	if err != nil {
		return fmt.Errorf("failed to get pending count: %w", err)
	}

	c.io.Println()
	if pending > 0 {
		c.io.Printf("Pending: %d event(s) waiting to be synchronized\n", pending)
		c.io.Println("Run 'cartsync sync' to push them now.")
	} else {
		c.io.Println("All local changes acknowledged by the store.")
	}

	if record := c.coord.LastConflict(); record != nil {
		c.io.Println()
		c.io.Printf("Last conflict: resolved as %s, %d event(s) dropped\n",
			record.Resolution, len(record.Dropped))
	}

	return nil
}
