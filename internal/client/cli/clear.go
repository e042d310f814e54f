package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runClear(ctx context.Context) error {
	event, err := c.coord.ClearCart(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	c.io.Printf("Cart cleared (event %s)\n", event.ID)
	return nil
}
