// Package gemini calls the Google Gemini API to produce marketplace records
// (businesses, community items) and free-text assistance (negotiation tips,
// price suggestions, item descriptions).
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/sokolink/sokolink/internal/market"
)

// DefaultModel is the Gemini model used for all requests.
const DefaultModel = "gemini-2.5-flash"

// Client talks to the Gemini API. It satisfies market.Gateway.
type Client struct {
	genai *genai.Client

	// One prepared model per response shape.
	businesses *genai.GenerativeModel
	items      *genai.GenerativeModel
	text       *genai.GenerativeModel
}

// NewClient creates a Client for the given API key. Pass an empty model to
// use DefaultModel.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	bizModel := gc.GenerativeModel(model)
	bizModel.ResponseMIMEType = "application/json"
	bizModel.ResponseSchema = businessListSchema

	itemModel := gc.GenerativeModel(model)
	itemModel.ResponseMIMEType = "application/json"
	itemModel.ResponseSchema = itemListSchema

	return &Client{
		genai:      gc,
		businesses: bizModel,
		items:      itemModel,
		text:       gc.GenerativeModel(model),
	}, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.genai.Close()
}

// FindBusinesses asks the model for local businesses matching a query and
// location. Records are validated before being returned; a record missing
// its name or address is dropped, an unknown category maps to "other".
func (c *Client) FindBusinesses(ctx context.Context, query, location string) ([]market.BusinessRecord, error) {
	prompt := fmt.Sprintf(`Act as a local business directory expert. I am looking for %q in %q.
Please find 3 to 5 relevant local businesses.
For each business, provide all the requested details in the JSON schema. It is very important to correctly categorize each business from the provided enum. Include social media links like instagram, facebook, twitter, and a whatsapp number where available.`,
		query, location)

	raw, err := c.generateText(ctx, c.businesses, prompt)
	if err != nil {
		return nil, fmt.Errorf("finding businesses: %w", err)
	}
	if raw == "" {
		slog.Warn("gemini returned an empty business response", "query", query, "location", location)
		return nil, nil
	}

	var records []market.BusinessRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decoding business response: %w", err)
	}
	return sanitizeBusinessRecords(records), nil
}

// FindCommunityItems asks the model to simulate second-hand listings from
// individuals around a location.
func (c *Client) FindCommunityItems(ctx context.Context, location string) ([]market.ItemRecord, error) {
	prompt := fmt.Sprintf(`Act as a simulator for a Kenyan neighborhood marketplace called "Soko Mtaani".
I am looking for second-hand items being sold by individuals in the %q area.
Please generate a list of 6 diverse items that people would realistically sell (e.g., electronics, furniture, appliances, clothing).
For each item, provide all the requested details in the JSON schema. It is very important to choose the most relevant category from the enum. Make the descriptions and titles sound authentic.
Do NOT generate an imageUrl. The category will be used to display an icon.`,
		location)

	raw, err := c.generateText(ctx, c.items, prompt)
	if err != nil {
		return nil, fmt.Errorf("finding community items: %w", err)
	}
	if raw == "" {
		slog.Warn("gemini returned an empty item response", "location", location)
		return nil, nil
	}

	var records []market.ItemRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decoding item response: %w", err)
	}
	return sanitizeItemRecords(records), nil
}

// NegotiationTip returns friendly negotiation advice for an item, in
// markdown, drafted for the Kenyan market context.
func (c *Client) NegotiationTip(ctx context.Context, itemName, userMessage string) (string, error) {
	prompt := fmt.Sprintf(`You are a friendly and savvy Kenyan negotiation assistant for an app called "Soko Link".
A user is interested in an item named %q.
The user's request is: %q.

Your goal is to provide helpful, actionable advice. Your response should be encouraging and formatted in simple markdown.
- If they ask for a price, suggest a realistic range and a polite way to ask.
- If they ask for a message draft, provide one in both English and Swahili.
- Keep your response concise, friendly, and culturally relevant to a Kenyan market context.
- Use emojis to make the response more engaging.`,
		itemName, userMessage)

	tip, err := c.generateText(ctx, c.text, prompt)
	if err != nil {
		return "", fmt.Errorf("getting negotiation tip: %w", err)
	}
	return strings.TrimSpace(tip), nil
}

// SuggestPrice returns a suggested starting price for a listing as a bare
// numeric string in KES. Non-digits in the model output are stripped; an
// empty result becomes "0".
func (c *Client) SuggestPrice(ctx context.Context, title, description string) (string, error) {
	prompt := fmt.Sprintf(`Act as a price suggestion expert for a Kenyan marketplace app.
A user is listing an item and needs help with pricing.
Item Title: %q
Item Description: %q
Based on this information, provide a realistic price range in Kenyan Shillings (KES).
Return ONLY the numeric value for a suggested starting price. Do not include "KES" or any other text. Just the number.
For example, if the suggested price is KES 15,000, you should return "15000".`,
		title, description)

	out, err := c.generateText(ctx, c.text, prompt)
	if err != nil {
		return "", fmt.Errorf("getting price suggestion: %w", err)
	}
	return sanitizePrice(out), nil
}

// DraftDescription writes a short sales description for an item title.
func (c *Client) DraftDescription(ctx context.Context, title string) (string, error) {
	prompt := fmt.Sprintf(`Act as a creative copywriter for a Kenyan marketplace app.
A user has provided a title for an item they want to sell: %q.
Generate a compelling, friendly, and concise description (2-3 sentences) for this item.
Highlight its potential benefits or condition. Make it sound authentic for a peer-to-peer sale.`,
		title)

	desc, err := c.generateText(ctx, c.text, prompt)
	if err != nil {
		return "", fmt.Errorf("getting description: %w", err)
	}
	return strings.TrimSpace(desc), nil
}

// generateText runs one generateContent call and flattens the first
// candidate's text parts.
func (c *Client) generateText(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String()), nil
}
