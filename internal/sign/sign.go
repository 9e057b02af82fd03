// Package sign implements the shop-sign line grammar and the plain-text
// rendering used in messages and on placement signs.
//
// Line 1: [Shop]
// Line 2: B <price> : S <price>   (either clause optional, 0 disables)
// Line 3: <amount> <item>         (amount optional, defaults to 1)
package sign

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/tradepost/internal/world"
)

// Header is the marker line that turns a placed sign into a shop request.
const Header = "[Shop]"

// IsHeader reports whether line is the shop marker, case-insensitively.
func IsHeader(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), Header)
}

// ParsePriceLine parses "B <price> : S <price>". Each clause is optional
// and a missing clause leaves its price at 0.
//
// In strict mode a clause that is present but unparsable rejects the line,
// whether it carries a malformed price or no recognizable B/S prefix at
// all. In lax mode it is treated as 0, reproducing the historical behavior
// of silently producing a one-directional shop.
func ParsePriceLine(line string, strict bool) (buy, sell float64, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, 0, nil
	}
	for _, part := range strings.Split(strings.ToUpper(line), ":") {
		part = strings.TrimSpace(part)
		var target *float64
		switch {
		case strings.HasPrefix(part, "B "):
			target = &buy
		case strings.HasPrefix(part, "S "):
			target = &sell
		default:
			if strict && part != "" {
				return 0, 0, fmt.Errorf("unrecognized price clause %q: use B <price> : S <price>", part)
			}
			continue
		}
		v, perr := strconv.ParseFloat(strings.TrimSpace(part[2:]), 64)
		if perr != nil {
			if strict {
				return 0, 0, fmt.Errorf("invalid price clause %q: use B <price> : S <price>", part)
			}
			continue
		}
		*target = v
	}
	return buy, sell, nil
}

// ParseItemLine parses "<amount> <item>" or "<item>" (amount 1).
// The item name is canonicalized via world.NormalizeItem.
func ParseItemLine(line string) (world.ItemType, int, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", 0, fmt.Errorf("missing item line: use <amount> <item name>")
	}
	amount := 1
	name := line
	if fields := strings.SplitN(line, " ", 2); len(fields) == 2 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			amount = n
			name = fields[1]
		}
	}
	item, err := world.NormalizeItem(name)
	if err != nil {
		return "", 0, fmt.Errorf("invalid item: %w", err)
	}
	return item, amount, nil
}

// FormatPrice renders a price without a decimal fraction when it is a
// whole number, and with exactly two decimals otherwise.
func FormatPrice(price float64) string {
	if price == float64(int64(price)) {
		return strconv.FormatInt(int64(price), 10)
	}
	return strconv.FormatFloat(price, 'f', 2, 64)
}

// FormatItemName renders an item token for humans: "IRON_INGOT" becomes
// "Iron Ingot".
func FormatItemName(item world.ItemType) string {
	words := strings.Split(strings.ToLower(string(item)), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// DisplayLines returns the four presentation lines for a registered shop.
type ShopView interface {
	Item() world.ItemType
	BuyPrice() float64
	SellPrice() float64
	OwnerName() string
}

// DisplayLines renders the sign text for a shop, color codes excluded.
func DisplayLines(s ShopView) [4]string {
	var price strings.Builder
	if s.BuyPrice() > 0 {
		price.WriteString("Buy $" + FormatPrice(s.BuyPrice()))
	}
	if s.BuyPrice() > 0 && s.SellPrice() > 0 {
		price.WriteString(" ")
	}
	if s.SellPrice() > 0 {
		price.WriteString("Sell $" + FormatPrice(s.SellPrice()))
	}
	return [4]string{
		"* SHOP *",
		FormatItemName(s.Item()),
		price.String(),
		s.OwnerName(),
	}
}
