package market

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sokolink/sokolink/internal/identity"
)

// Gateway produces marketplace records from the AI service. Implemented by
// gemini.Client.
type Gateway interface {
	FindBusinesses(ctx context.Context, query, location string) ([]BusinessRecord, error)
	FindCommunityItems(ctx context.Context, location string) ([]ItemRecord, error)
}

// Search runs a marketplace search: businesses and community items are
// fetched concurrently and joined before any state changes, so either
// failure aborts the whole operation and existing collections stay intact.
// On success both result collections are replaced wholesale; user listings
// are a separate collection and survive every search.
func (m *Manager) Search(ctx context.Context, query, location string) error {
	var bizRecords []BusinessRecord
	var itemRecords []ItemRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := m.gateway.FindBusinesses(gctx, query, location)
		if err != nil {
			return fmt.Errorf("finding businesses: %w", err)
		}
		bizRecords = recs
		return nil
	})
	g.Go(func() error {
		recs, err := m.gateway.FindCommunityItems(gctx, location)
		if err != nil {
			return fmt.Errorf("finding community items: %w", err)
		}
		itemRecords = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	businesses := make([]Business, len(bizRecords))
	for i, rec := range bizRecords {
		businesses[i] = businessFromRecord(rec)
	}
	items := make([]CommunityItem, len(itemRecords))
	for i, rec := range itemRecords {
		items[i] = itemFromRecord(rec)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// The seller's own listing always appears, deduplicated against any
	// gateway record describing the same business.
	if m.profile.BusinessName != "" && m.profile.Address != "" {
		seller := m.sellerBusinessLocked()
		replaced := false
		for i := range businesses {
			if businesses[i].ID == seller.ID {
				businesses[i] = seller
				replaced = true
				break
			}
		}
		if !replaced {
			businesses = append([]Business{seller}, businesses...)
		}
	}

	m.businesses = businesses
	m.aiItems = items
	m.hasSearched = true
	m.saveSlot(slotBusinesses, m.businesses)
	m.saveSlot(slotAIItems, m.aiItems)
	m.saveSlot(slotHasSearched, m.hasSearched)
	return nil
}

// BrowseCommunity populates the community feed for a location without a
// business search. It only fetches when both item collections are empty, the
// first visit to the community view.
func (m *Manager) BrowseCommunity(ctx context.Context, location string) error {
	m.mu.RLock()
	empty := len(m.aiItems) == 0 && len(m.userItems) == 0
	m.mu.RUnlock()
	if !empty {
		return nil
	}

	records, err := m.gateway.FindCommunityItems(ctx, location)
	if err != nil {
		return fmt.Errorf("finding community items: %w", err)
	}

	items := make([]CommunityItem, len(records))
	for i, rec := range records {
		items[i] = itemFromRecord(rec)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.aiItems = items
	m.saveSlot(slotAIItems, m.aiItems)
	return nil
}

// sellerBusinessLocked builds the synthetic business record for the current
// profile. Callers must hold the lock.
func (m *Manager) sellerBusinessLocked() Business {
	phone := m.profile.Phone
	if phone == "" {
		phone = m.profile.Whatsapp
	}
	if phone == "" {
		phone = "Not specified"
	}
	return Business{
		ID:         identity.SellerBusinessID,
		Name:       m.profile.BusinessName,
		Address:    m.profile.Address,
		Category:   m.profile.Category,
		Products:   append([]Product(nil), m.profile.Products...),
		Phone:      phone,
		Hours:      m.profile.Hours,
		Delivery:   m.profile.Delivery,
		PriceRange: m.profile.PriceRange,
		Negotiable: m.profile.Negotiable,
		SocialMedia: SocialMedia{
			Website:   m.profile.Website,
			Instagram: m.profile.Instagram,
			Facebook:  m.profile.Facebook,
			Twitter:   m.profile.Twitter,
			Whatsapp:  m.profile.Whatsapp,
		},
	}
}

func businessFromRecord(rec BusinessRecord) Business {
	return Business{
		ID:          identity.BusinessID(rec.Name, rec.Address),
		Name:        rec.Name,
		Address:     rec.Address,
		Phone:       rec.Phone,
		Hours:       rec.Hours,
		Delivery:    rec.Delivery,
		PriceRange:  rec.PriceRange,
		Negotiable:  rec.Negotiable,
		Category:    rec.Category,
		SocialMedia: rec.SocialMedia,
	}
}

func itemFromRecord(rec ItemRecord) CommunityItem {
	return CommunityItem{
		ID:          identity.AIItemID(rec.Title, rec.Location, rec.SellerName),
		Title:       rec.Title,
		Description: rec.Description,
		Price:       rec.Price,
		Condition:   rec.Condition,
		Category:    rec.Category,
		ImageURL:    rec.ImageURL,
		Location:    rec.Location,
		SellerName:  rec.SellerName,
		Negotiable:  rec.Negotiable,
		Status:      StatusAvailable,
	}
}
