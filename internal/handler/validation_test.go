package handler

import (
	"strings"
	"testing"
	"time"

	"shopcrm/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestValidateLineItems(t *testing.T) {
	valid := []LineItemRequest{
		{Description: "Front brake pads", Quantity: 1, UnitPrice: 89.99, ItemType: model.LineItemTypePart},
		{Description: "Brake service labor", Quantity: 1.5, UnitPrice: 120, ItemType: model.LineItemTypeLabor},
		{Description: "Shop supplies", Quantity: 1, UnitPrice: 0, ItemType: model.LineItemTypeFee},
	}
	assert.Empty(t, validateLineItems(valid))
	assert.Empty(t, validateLineItems(nil))

	tests := []struct {
		name  string
		items []LineItemRequest
	}{
		{"missing description", []LineItemRequest{{Quantity: 1, UnitPrice: 10, ItemType: model.LineItemTypePart}}},
		{"zero quantity", []LineItemRequest{{Description: "Oil filter", Quantity: 0, UnitPrice: 10, ItemType: model.LineItemTypePart}}},
		{"negative quantity", []LineItemRequest{{Description: "Oil filter", Quantity: -2, UnitPrice: 10, ItemType: model.LineItemTypePart}}},
		{"negative price", []LineItemRequest{{Description: "Oil filter", Quantity: 1, UnitPrice: -5, ItemType: model.LineItemTypePart}}},
		{"unknown item type", []LineItemRequest{{Description: "Oil filter", Quantity: 1, UnitPrice: 10, ItemType: "discount"}}},
		{"empty item type", []LineItemRequest{{Description: "Oil filter", Quantity: 1, UnitPrice: 10}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEmpty(t, validateLineItems(tc.items))
		})
	}
}

func TestCashSubtotal(t *testing.T) {
	items := []model.LineItem{
		{Quantity: 2, UnitPrice: 49.99},
		{Quantity: 1.5, UnitPrice: 120},
		{Quantity: 1, UnitPrice: 12.50},
	}
	assert.InDelta(t, 292.48, cashSubtotal(items), 0.001)
	assert.Zero(t, cashSubtotal(nil))
}

func TestValidateVehicleRequest(t *testing.T) {
	assert.NotEmpty(t, validateVehicleRequest(&VehicleRequest{VIN: "1HGCM82633A004352"}))

	ok := &VehicleRequest{CustomerID: 7, Year: 2019, Make: "Honda", Model: "Accord", VIN: "1HGCM82633A004352"}
	assert.Empty(t, validateVehicleRequest(ok))

	noVIN := &VehicleRequest{CustomerID: 7, Year: 2019, Make: "Honda", Model: "Accord"}
	assert.Empty(t, validateVehicleRequest(noVIN))

	shortVIN := &VehicleRequest{CustomerID: 7, VIN: "ABC123"}
	assert.NotEmpty(t, validateVehicleRequest(shortVIN))
}

func TestInvoiceNumber(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	n := invoiceNumber(42, now)

	assert.True(t, strings.HasPrefix(n, "INV-42-20250615-"), n)
	assert.NotEqual(t, n, invoiceNumber(42, now))
}
