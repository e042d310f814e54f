package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		want  string
	}{
		{name: "whole amount", cents: 1200, want: "12.00"},
		{name: "with cents", cents: 1299, want: "12.99"},
		{name: "under one unit", cents: 5, want: "0.05"},
		{name: "zero", cents: 0, want: "0.00"},
		{name: "negative", cents: -150, want: "-1.50"},
		{name: "negative under one unit", cents: -5, want: "-0.05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatPrice(tt.cents))
		})
	}
}
