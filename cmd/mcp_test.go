package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampTopK(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero floors to one", 0, 1},
		{"negative floors to one", -3, 1},
		{"in range passes through", 5, 5},
		{"upper bound passes through", 20, 20},
		{"over limit caps to twenty", 25, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampTopK(tt.in))
		})
	}
}
