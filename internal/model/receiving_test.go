package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveItemStatus(t *testing.T) {
	tests := []struct {
		name     string
		received float64
		expected float64
		want     ItemStatus
	}{
		{"nothing received", 0, 10, ItemPending},
		{"negative treated as pending", -1, 10, ItemPending},
		{"short of expected", 4, 10, ItemPartial},
		{"just under", 9.99, 10, ItemPartial},
		{"exactly expected", 10, 10, ItemReceived},
		{"over-receipt", 12, 10, ItemReceived},
		{"zero expected, zero received", 0, 0, ItemPending},
		{"zero expected, anything received", 1, 0, ItemReceived},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveItemStatus(tt.received, tt.expected))
		})
	}
}

func TestReceivingItem_Annotated(t *testing.T) {
	note := "crate damaged"
	empty := ""

	assert.False(t, ReceivingItem{}.Annotated())
	assert.False(t, ReceivingItem{ConditionNotes: &empty}.Annotated())
	assert.True(t, ReceivingItem{ConditionNotes: &note}.Annotated())
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleMagacioner, NormalizeRole("Magacioner"))
	assert.Equal(t, RoleSef, NormalizeRole("  SEF "))
	assert.Equal(t, Role(""), NormalizeRole(""))
}
