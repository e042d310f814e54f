package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("Synchronizing with cart store...")

	if err := c.coord.SyncNow(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	pending, err := c.eventLog.PendingCount(ctx, c.cartID)
	if err != nil {
		return fmt.Errorf("failed to get pending count: %w", err)
	}

	if pending > 0 {
		c.io.Printf("Sync finished with %d event(s) still pending (status: %s)\n", pending, c.coord.Status())
	} else {
		c.io.Println("Sync complete, all events acknowledged")
	}
	return nil
}
