// Package identity derives stable string identifiers for marketplace records
// that have no server-assigned key. Identical inputs always produce identical
// ids, so records returned again by the AI gateway (or re-submitted by the
// user) deduplicate naturally.
package identity

import "strings"

// SellerBusinessID is the synthetic id of the current user's own business
// record. It is injected into search results and replaces any gateway record
// that derives the same id.
const SellerBusinessID = "seller-biz-profile"

// BusinessID derives an id from a business name and address.
func BusinessID(name, address string) string {
	return normalize(name + address)
}

// AIItemID derives an id for a gateway-sourced community item.
func AIItemID(title, location, sellerName string) string {
	return "ai-item-" + normalize(title+location+sellerName)
}

// UserItemID derives an id for a user-listed community item. Title, category
// and price together are unique enough for a single seller's listings.
func UserItemID(title, category, price string) string {
	return "user-item-" + normalize(title+category+price)
}

// normalize lowercases s and strips everything that is not an ASCII letter or
// digit. Inputs that differ only in punctuation or case collapse to the same
// id; that collision risk is accepted.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}
