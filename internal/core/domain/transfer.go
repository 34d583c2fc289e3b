// internal/core/domain/transfer.go
package domain

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// TransferRecord moves stock of one item between two locations. It lives
// only until the transfer is completed, at which point it becomes a
// decrement at the source and an increment at the destination.
type TransferRecord struct {
	FromLocation    string        `json:"fromLocation"`
	ToLocation      string        `json:"toLocation"`
	Quantity        int           `json:"quantity"`
	Item            InventoryItem `json:"item"`
	Date            time.Time     `json:"date"`
	ReferenceNumber string        `json:"referenceNumber"`
}

// NewTransfer validates the request against the item's current holdings
// and mints a reference number.
func NewTransfer(item InventoryItem, from, to string, qty int, now time.Time) (TransferRecord, error) {
	t := TransferRecord{
		FromLocation:    strings.TrimSpace(from),
		ToLocation:      strings.TrimSpace(to),
		Quantity:        qty,
		Item:            item.Clone(),
		Date:            now,
		ReferenceNumber: NewTransferReference(now),
	}
	if err := t.Validate(); err != nil {
		return TransferRecord{}, err
	}
	return t, nil
}

// Validate checks the transfer can be applied to its item
func (t TransferRecord) Validate() error {
	if t.FromLocation == "" || t.ToLocation == "" {
		return fmt.Errorf("%w: both locations are required", ErrInvalidTransfer)
	}
	if t.FromLocation == t.ToLocation {
		return fmt.Errorf("%w: source and destination are the same", ErrInvalidTransfer)
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidTransfer)
	}
	if t.Item.SKU == "" {
		return fmt.Errorf("%w: item sku is required", ErrInvalidTransfer)
	}
	available := t.Item.Stock
	if len(t.Item.Locations) > 0 {
		available, _ = t.Item.LocationCount(t.FromLocation)
	} else if t.Item.Location != t.FromLocation {
		available = 0
	}
	if available < t.Quantity {
		return fmt.Errorf("%w: only %d units at %s", ErrInvalidTransfer, available, t.FromLocation)
	}
	return nil
}

// NewTransferReference returns a reference like TRF-20250102-4F9A1C
func NewTransferReference(now time.Time) string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("TRF-%s-%X", now.Format("20060102"), b[:])
}
