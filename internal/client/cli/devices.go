package cli

import (
	"context"
	"fmt"
	"text/template"
)

func (c *Cli) runDevices(ctx context.Context) error {
	devices, err := c.registry.List(ctx, c.cartID)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	tmpl, err := template.New("devices").Parse(devicesTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse devices template: %w", err)
	}
	if err := tmpl.Execute(c.io, devices); err != nil {
		return fmt.Errorf("failed to render devices: %w", err)
	}
	return nil
}
