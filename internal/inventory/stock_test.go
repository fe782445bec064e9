package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyAdjustment(t *testing.T) {
	tests := []struct {
		name    string
		onHand  int
		delta   int
		want    int
		wantErr bool
	}{
		{"receive stock", 10, 5, 15, false},
		{"consume stock", 10, -4, 6, false},
		{"consume to zero", 10, -10, 0, false},
		{"consume past zero rejected", 10, -11, 10, true},
		{"negative delta on empty rejected", 0, -1, 0, true},
		{"zero delta", 7, 0, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyAdjustment(tt.onHand, tt.delta)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInsufficientStock)
				// rejected adjustments return the original quantity
				assert.Equal(t, tt.onHand, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
