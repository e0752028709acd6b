package gemini

import (
	"github.com/google/generative-ai-go/genai"

	"github.com/sokolink/sokolink/internal/market"
)

// Structured-output schemas attached to the prepared models. The property
// names mirror the JSON tags on market.BusinessRecord and market.ItemRecord.

var businessListSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":    {Type: genai.TypeString, Description: "Name of the business"},
			"address": {Type: genai.TypeString, Description: "Physical address of the business"},
			"phone":   {Type: genai.TypeString, Description: "Contact phone number"},
			"hours":   {Type: genai.TypeString, Description: "Operating hours, e.g., 'Mon-Fri 9am-5pm'"},
			"delivery": {
				Type:        genai.TypeBoolean,
				Description: "Whether the business offers delivery services",
			},
			"priceRange": {
				Type:        genai.TypeString,
				Description: "Price range indicator, e.g., '$', '$$', '$$$'",
			},
			"negotiable": {
				Type:        genai.TypeBoolean,
				Description: "Whether prices are typically negotiable",
			},
			"category": {
				Type:        genai.TypeString,
				Description: "The category of the business",
				Enum:        market.BusinessCategories,
			},
			"socialMedia": {
				Type:        genai.TypeObject,
				Description: "Social media presence",
				Properties: map[string]*genai.Schema{
					"instagram": {Type: genai.TypeString, Description: "Instagram handle or URL"},
					"facebook":  {Type: genai.TypeString, Description: "Facebook page URL"},
					"website":   {Type: genai.TypeString, Description: "Official website URL"},
					"twitter":   {Type: genai.TypeString, Description: "Twitter/X handle or URL"},
					"whatsapp":  {Type: genai.TypeString, Description: "WhatsApp contact number"},
				},
			},
		},
		Required: []string{"name", "address", "phone", "hours", "delivery", "priceRange", "negotiable", "category"},
	},
}

var itemListSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString, Description: "Name of the item for sale"},
			"description": {Type: genai.TypeString, Description: "A short, appealing description of the item"},
			"price":       {Type: genai.TypeString, Description: "Price in KES, e.g., 'KES 15,000'"},
			"condition": {
				Type:        genai.TypeString,
				Description: "Condition of the item",
				Enum:        market.ItemConditions,
			},
			"category": {
				Type:        genai.TypeString,
				Description: "The category of the item",
				Enum:        market.ItemCategories,
			},
			"location":   {Type: genai.TypeString, Description: "Neighborhood where the item is located"},
			"sellerName": {Type: genai.TypeString, Description: "A realistic Kenyan first name for the seller"},
			"negotiable": {Type: genai.TypeBoolean, Description: "Whether the price is negotiable"},
		},
		Required: []string{"title", "description", "price", "condition", "category", "location", "sellerName", "negotiable"},
	},
}
