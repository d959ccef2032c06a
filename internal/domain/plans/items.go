package plans

import (
	"errors"
	"fmt"
	"sort"
)

var ErrItemNotFound = errors.New("item not found")

// Item is a physical accessory that can be bundled into a checkout.
type Item struct {
	SKU         string `json:"sku"`
	DisplayName string `json:"display_name"`
	Amount      int64  `json:"amount"`
	Shippable   bool   `json:"shippable"`
}

var items = map[string]Item{
	"nfc_card":       {"nfc_card", "NFC Profile Card", 2200, true},
	"nfc_card_metal": {"nfc_card_metal", "NFC Profile Card (Metal)", 5500, true},
	"qr_sticker":     {"qr_sticker", "QR Sticker Pack", 880, true},
	"setup_support":  {"setup_support", "Setup Support", 11000, false},
}

func ResolveItem(sku string) (Item, error) {
	it, ok := items[sku]
	if !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrItemNotFound, sku)
	}
	return it, nil
}

// AllItems returns the accessory catalog ordered by SKU.
func AllItems() []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}
