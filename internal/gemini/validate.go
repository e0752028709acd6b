package gemini

import (
	"log/slog"
	"strings"

	"github.com/sokolink/sokolink/internal/market"
)

// Model output passes a schema, not a contract. These helpers enforce the
// parts the schema cannot: required identity fields and closed enums.

// sanitizeBusinessRecords drops records without a name or address and maps
// unknown categories to "other".
func sanitizeBusinessRecords(records []market.BusinessRecord) []market.BusinessRecord {
	out := records[:0]
	for _, rec := range records {
		if rec.Name == "" || rec.Address == "" {
			slog.Warn("dropping business record without name or address", "name", rec.Name, "address", rec.Address)
			continue
		}
		if !market.ValidBusinessCategory(rec.Category) {
			rec.Category = "other"
		}
		out = append(out, rec)
	}
	return out
}

// sanitizeItemRecords drops records without a title and maps unknown
// categories and conditions to their fallbacks.
func sanitizeItemRecords(records []market.ItemRecord) []market.ItemRecord {
	out := records[:0]
	for _, rec := range records {
		if rec.Title == "" {
			slog.Warn("dropping item record without title", "seller", rec.SellerName)
			continue
		}
		if !market.ValidItemCategory(rec.Category) {
			rec.Category = "Other"
		}
		if !market.ValidItemCondition(rec.Condition) {
			rec.Condition = "Used - Good"
		}
		out = append(out, rec)
	}
	return out
}

// sanitizePrice strips everything but digits from a model price reply.
// "KES 15,000" becomes "15000"; output with no digits at all becomes "0".
func sanitizePrice(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return "0"
	}
	return cleaned
}
