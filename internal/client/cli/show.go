package cli

import (
	"context"
	"fmt"
	"text/template"
)

type cartItemView struct {
	ItemID   string
	Name     string
	Price    string
	Quantity int
}

type cartView struct {
	CartID string
	Items  []cartItemView
	Count  int
	Total  string
}

func (c *Cli) runShow(ctx context.Context) error {
	state, err := c.coord.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	view := cartView{
		CartID: state.CartID,
		Count:  state.ItemCount(),
		Total:  formatPrice(state.TotalAmount()),
	}
	for _, item := range state.ItemList() {
		view.Items = append(view.Items, cartItemView{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Price:    formatPrice(item.Price),
			Quantity: item.Quantity,
		})
	}

	tmpl, err := template.New("cart").Parse(cartTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse cart template: %w", err)
	}
	if err := tmpl.Execute(c.io, view); err != nil {
		return fmt.Errorf("failed to render cart: %w", err)
	}
	return nil
}

// formatPrice renders cents as a decimal amount.
func formatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
