// Package market holds the Soko Link domain model and the Manager that owns
// all mutable application state: discovered businesses, community items,
// user listings, conversations, favorites and the seller's business profile.
package market

import "time"

// Role is the side of the marketplace the user is currently acting as.
type Role string

const (
	RoleBuyer  Role = "Buyer"
	RoleSeller Role = "Seller"
)

// BusinessCategories are the accepted business category values.
var BusinessCategories = []string{"cafe", "restaurant", "shop", "salon", "services", "other"}

// ItemCategories are the accepted community item category values.
var ItemCategories = []string{"Electronics", "Furniture", "Clothing", "Appliances", "Books", "Toys", "Other"}

// ItemConditions are the accepted community item condition values.
var ItemConditions = []string{"New", "Used - Like New", "Used - Good", "For Parts"}

// ItemStatus is the lifecycle state of a community item.
type ItemStatus string

const (
	StatusAvailable ItemStatus = "available"
	StatusSold      ItemStatus = "sold"
)

// ValidBusinessCategory reports whether c is a known business category.
func ValidBusinessCategory(c string) bool { return contains(BusinessCategories, c) }

// ValidItemCategory reports whether c is a known item category.
func ValidItemCategory(c string) bool { return contains(ItemCategories, c) }

// ValidItemCondition reports whether c is a known item condition.
func ValidItemCondition(c string) bool { return contains(ItemConditions, c) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// SocialMedia holds a business's optional social links.
type SocialMedia struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Website   string `json:"website,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Whatsapp  string `json:"whatsapp,omitempty"`
}

// Product is a single named offering of a business.
type Product struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Business is one local business in the directory.
type Business struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Phone       string      `json:"phone"`
	Hours       string      `json:"hours"`
	Delivery    bool        `json:"delivery"`
	PriceRange  string      `json:"priceRange"`
	Negotiable  bool        `json:"negotiable"`
	Category    string      `json:"category"`
	Products    []Product   `json:"products,omitempty"`
	SocialMedia SocialMedia `json:"socialMedia"`
}

// CommunityItem is a peer-to-peer listing, either gateway-sourced or
// user-listed.
type CommunityItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       string     `json:"price"`
	Condition   string     `json:"condition"`
	Category    string     `json:"category"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Location    string     `json:"location"`
	SellerName  string     `json:"sellerName"`
	Negotiable  bool       `json:"negotiable"`
	Status      ItemStatus `json:"status"`
}

// Message is a single message inside a conversation.
type Message struct {
	ID        string    `json:"id"`
	Sender    Role      `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the message thread for one item. Its id equals the item id:
// there is at most one conversation per item.
type Conversation struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"itemId"`
	ItemName       string    `json:"itemName"`
	Messages       []Message `json:"messages"`
	IsReadByBuyer  bool      `json:"isReadByBuyer"`
	IsReadBySeller bool      `json:"isReadBySeller"`
}

// BusinessProfile is the seller's own business, edited in the seller view and
// injected into buyer search results once name and address are set.
type BusinessProfile struct {
	BusinessName string    `json:"businessName"`
	Address      string    `json:"address"`
	Category     string    `json:"category"`
	Website      string    `json:"website"`
	Instagram    string    `json:"instagram"`
	Facebook     string    `json:"facebook"`
	Twitter      string    `json:"twitter"`
	Whatsapp     string    `json:"whatsapp"`
	Products     []Product `json:"products"`
	Phone        string    `json:"phone"`
	Hours        string    `json:"hours"`
	Delivery     bool      `json:"delivery"`
	PriceRange   string    `json:"priceRange"`
	Negotiable   bool      `json:"negotiable"`
}

// DefaultProfile returns the profile a fresh session starts with.
func DefaultProfile() BusinessProfile {
	return BusinessProfile{
		Category:   "shop",
		Products:   []Product{},
		Hours:      "Mon-Fri 9am-5pm",
		PriceRange: "$$",
	}
}

// BusinessRecord is a gateway-returned business: the Business shape minus the
// derived id.
type BusinessRecord struct {
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Phone       string      `json:"phone"`
	Hours       string      `json:"hours"`
	Delivery    bool        `json:"delivery"`
	PriceRange  string      `json:"priceRange"`
	Negotiable  bool        `json:"negotiable"`
	Category    string      `json:"category"`
	SocialMedia SocialMedia `json:"socialMedia"`
}

// ItemRecord is a gateway-returned community item: the CommunityItem shape
// minus id and status.
type ItemRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Condition   string `json:"condition"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Location    string `json:"location"`
	SellerName  string `json:"sellerName"`
	Negotiable  bool   `json:"negotiable"`
}

// ItemDraft is the user's input when listing an item for sale.
type ItemDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Condition   string `json:"condition"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Location    string `json:"location"`
	SellerName  string `json:"sellerName"`
	Negotiable  bool   `json:"negotiable"`
}
