package market

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sokolink/sokolink/internal/identity"
)

// State slot keys. One durable slot per collection; values are JSON.
const (
	slotRole          = "role"
	slotBusinesses    = "businesses"
	slotAIItems       = "ai-items"
	slotUserItems     = "user-items"
	slotConversations = "conversations"
	slotProfile       = "seller-profile"
	slotFavBusinesses = "fav-businesses"
	slotFavItems      = "fav-items"
	slotHasSearched   = "has-searched"
)

// Store defines the persistence operations the Manager needs.
// Implemented by storage.Store.
type Store interface {
	SetSlot(key, value string) error
	GetAllSlots() (map[string]string, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager owns every domain collection and is the only writer to them. All
// mutation happens under the lock; persistence is a best-effort side effect
// after each mutation, so a storage write failure never rolls back the
// in-memory change.
type Manager struct {
	store   Store
	gateway Gateway
	clock   Clock

	mu            sync.RWMutex
	role          Role
	businesses    []Business
	aiItems       []CommunityItem
	userItems     []CommunityItem
	conversations []Conversation
	profile       BusinessProfile
	favBusinesses []Business
	favItems      []CommunityItem
	hasSearched   bool
}

// NewManager rehydrates domain state from the store. A slot that is absent or
// fails to unmarshal initializes to its declared default; only a failing
// store read is an error.
func NewManager(store Store, gateway Gateway) (*Manager, error) {
	slots, err := store.GetAllSlots()
	if err != nil {
		return nil, fmt.Errorf("loading state slots: %w", err)
	}

	m := &Manager{
		store:   store,
		gateway: gateway,
		clock:   realClock{},
		role:    RoleBuyer,
		profile: DefaultProfile(),
	}

	unmarshalSlot(slots, slotRole, &m.role)
	unmarshalSlot(slots, slotBusinesses, &m.businesses)
	unmarshalSlot(slots, slotAIItems, &m.aiItems)
	unmarshalSlot(slots, slotUserItems, &m.userItems)
	unmarshalSlot(slots, slotConversations, &m.conversations)
	unmarshalSlot(slots, slotProfile, &m.profile)
	unmarshalSlot(slots, slotFavBusinesses, &m.favBusinesses)
	unmarshalSlot(slots, slotFavItems, &m.favItems)
	unmarshalSlot(slots, slotHasSearched, &m.hasSearched)

	if m.role != RoleBuyer && m.role != RoleSeller {
		m.role = RoleBuyer
	}

	return m, nil
}

// unmarshalSlot decodes a stored JSON value into target, logging a warning
// and leaving target at its default if the value is absent or malformed.
func unmarshalSlot(slots map[string]string, key string, target any) {
	v, ok := slots[key]
	if !ok {
		return
	}
	if err := json.Unmarshal([]byte(v), target); err != nil {
		slog.Warn("malformed state slot, using default", "slot", key, "error", err)
	}
}

// saveSlot serializes value and writes it to the store. Failures are logged
// and swallowed: the in-memory state already changed and stays authoritative.
func (m *Manager) saveSlot(key string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		slog.Warn("serializing state slot failed", "slot", key, "error", err)
		return
	}
	if err := m.store.SetSlot(key, string(b)); err != nil {
		slog.Warn("persisting state slot failed", "slot", key, "error", err)
	}
}

// --- Role ---

// CurrentRole returns the role the user is acting as.
func (m *Manager) CurrentRole() Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role
}

// SetRole switches between buyer and seller. Unknown values are ignored.
func (m *Manager) SetRole(r Role) {
	if r != RoleBuyer && r != RoleSeller {
		slog.Warn("ignoring unknown role", "role", string(r))
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.role = r
	m.saveSlot(slotRole, m.role)
}

// HasSearched reports whether a search has been run in this or a previous session.
func (m *Manager) HasSearched() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasSearched
}

// --- User listings ---

// AddItem lists a new user item. The id derives from title, category and
// price; a draft that collides with an existing listing is silently rejected
// (logged, no user-visible error) and ok is false.
func (m *Manager) AddItem(draft ItemDraft) (item CommunityItem, ok bool) {
	id := identity.UserItemID(draft.Title, draft.Category, draft.Price)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.userItems {
		if existing.ID == id {
			slog.Warn("item already exists, insert rejected", "id", id)
			return CommunityItem{}, false
		}
	}

	item = CommunityItem{
		ID:          id,
		Title:       draft.Title,
		Description: draft.Description,
		Price:       draft.Price,
		Condition:   draft.Condition,
		Category:    draft.Category,
		ImageURL:    draft.ImageURL,
		Location:    draft.Location,
		SellerName:  draft.SellerName,
		Negotiable:  draft.Negotiable,
		Status:      StatusAvailable,
	}
	m.userItems = append([]CommunityItem{item}, m.userItems...)
	m.saveSlot(slotUserItems, m.userItems)
	return item, true
}

// DeleteItem removes a user listing and any favorite reference to it, so
// favorites never point at a deleted item. Unknown ids are a no-op.
func (m *Manager) DeleteItem(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.userItems = filterItems(m.userItems, id)
	m.favItems = filterItems(m.favItems, id)
	m.saveSlot(slotUserItems, m.userItems)
	m.saveSlot(slotFavItems, m.favItems)
}

// UpdateItemStatus sets the status of a user listing in place. Unknown ids
// and unknown statuses are a no-op.
func (m *Manager) UpdateItemStatus(id string, status ItemStatus) {
	if status != StatusAvailable && status != StatusSold {
		slog.Warn("ignoring unknown item status", "id", id, "status", string(status))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.userItems {
		if m.userItems[i].ID == id {
			m.userItems[i].Status = status
			m.saveSlot(slotUserItems, m.userItems)
			return
		}
	}
}

func filterItems(items []CommunityItem, id string) []CommunityItem {
	out := items[:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// --- Conversations ---

// SendMessage appends a buyer message to the item's conversation, creating
// the conversation if it does not exist. The seller's read flag drops either way.
func (m *Manager) SendMessage(itemID, itemName, text string) Conversation {
	msg := Message{
		ID:        uuid.New().String(),
		Sender:    RoleBuyer,
		Text:      text,
		Timestamp: m.clock.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.conversations {
		if m.conversations[i].ItemID == itemID {
			m.conversations[i].Messages = append(m.conversations[i].Messages, msg)
			m.conversations[i].IsReadBySeller = false
			m.saveSlot(slotConversations, m.conversations)
			return copyConversation(m.conversations[i])
		}
	}

	convo := Conversation{
		ID:             itemID,
		ItemID:         itemID,
		ItemName:       itemName,
		Messages:       []Message{msg},
		IsReadByBuyer:  true,
		IsReadBySeller: false,
	}
	m.conversations = append([]Conversation{convo}, m.conversations...)
	m.saveSlot(slotConversations, m.conversations)
	return copyConversation(convo)
}

// Reply appends a seller message to an existing conversation and flips the
// read flags: unread for the buyer, read for the seller. Unknown conversation
// ids are a no-op and return false.
func (m *Manager) Reply(conversationID, text string) bool {
	msg := Message{
		ID:        uuid.New().String(),
		Sender:    RoleSeller,
		Text:      text,
		Timestamp: m.clock.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.conversations {
		if m.conversations[i].ID == conversationID {
			m.conversations[i].Messages = append(m.conversations[i].Messages, msg)
			m.conversations[i].IsReadByBuyer = false
			m.conversations[i].IsReadBySeller = true
			m.saveSlot(slotConversations, m.conversations)
			return true
		}
	}
	return false
}

// MarkRead marks a conversation read for the given role only.
func (m *Manager) MarkRead(conversationID string, role Role) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.conversations {
		if m.conversations[i].ID != conversationID {
			continue
		}
		if role == RoleBuyer {
			m.conversations[i].IsReadByBuyer = true
		} else {
			m.conversations[i].IsReadBySeller = true
		}
		m.saveSlot(slotConversations, m.conversations)
		return
	}
}

// UnreadCount returns how many conversations are unread for the given role.
// Always recomputed, never cached.
func (m *Manager) UnreadCount(role Role) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, c := range m.conversations {
		if role == RoleBuyer && !c.IsReadByBuyer {
			count++
		}
		if role == RoleSeller && !c.IsReadBySeller {
			count++
		}
	}
	return count
}

// --- Favorites ---

// ToggleFavoriteBusiness adds the business to favorites, or removes it if it
// is already there. Two toggles net to no change.
func (m *Manager) ToggleFavoriteBusiness(b Business) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, fav := range m.favBusinesses {
		if fav.ID == b.ID {
			m.favBusinesses = append(m.favBusinesses[:i], m.favBusinesses[i+1:]...)
			m.saveSlot(slotFavBusinesses, m.favBusinesses)
			return
		}
	}
	m.favBusinesses = append(m.favBusinesses, b)
	m.saveSlot(slotFavBusinesses, m.favBusinesses)
}

// ToggleFavoriteItem adds the item to favorites, or removes it if it is
// already there.
func (m *Manager) ToggleFavoriteItem(it CommunityItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, fav := range m.favItems {
		if fav.ID == it.ID {
			m.favItems = append(m.favItems[:i], m.favItems[i+1:]...)
			m.saveSlot(slotFavItems, m.favItems)
			return
		}
	}
	m.favItems = append(m.favItems, it)
	m.saveSlot(slotFavItems, m.favItems)
}

// IsFavoriteItem reports whether an item id is currently favorited.
func (m *Manager) IsFavoriteItem(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, fav := range m.favItems {
		if fav.ID == id {
			return true
		}
	}
	return false
}

// IsFavoriteBusiness reports whether a business id is currently favorited.
func (m *Manager) IsFavoriteBusiness(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, fav := range m.favBusinesses {
		if fav.ID == id {
			return true
		}
	}
	return false
}

// --- Business profile ---

// SaveProfile replaces the seller's business profile wholesale.
func (m *Manager) SaveProfile(p BusinessProfile) {
	if p.Products == nil {
		p.Products = []Product{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = p
	m.saveSlot(slotProfile, m.profile)
}

// AddProduct appends a product to the profile. Duplicate names are allowed;
// only community items deduplicate.
func (m *Manager) AddProduct(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile.Products = append(m.profile.Products, p)
	m.saveSlot(slotProfile, m.profile)
}

// DeleteProduct removes every product with the given name.
func (m *Manager) DeleteProduct(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.profile.Products[:0]
	for _, p := range m.profile.Products {
		if p.Name != name {
			out = append(out, p)
		}
	}
	m.profile.Products = out
	m.saveSlot(slotProfile, m.profile)
}

// --- Read access (deep copies) ---

// Businesses returns the current business search results.
func (m *Manager) Businesses() []Business {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyBusinesses(m.businesses)
}

// AIItems returns the gateway-sourced community items.
func (m *Manager) AIItems() []CommunityItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyItems(m.aiItems)
}

// UserItems returns the user's own listings.
func (m *Manager) UserItems() []CommunityItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyItems(m.userItems)
}

// CommunityItems returns user listings followed by gateway items, the order
// the buyer view renders them in.
func (m *Manager) CommunityItems() []CommunityItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CommunityItem, 0, len(m.userItems)+len(m.aiItems))
	out = append(out, copyItems(m.userItems)...)
	out = append(out, copyItems(m.aiItems)...)
	return out
}

// Conversations returns all conversations, newest first.
func (m *Manager) Conversations() []Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Conversation, len(m.conversations))
	for i, c := range m.conversations {
		out[i] = copyConversation(c)
	}
	return out
}

// Profile returns the seller's business profile.
func (m *Manager) Profile() BusinessProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.profile
	p.Products = append([]Product(nil), m.profile.Products...)
	return p
}

// FavoriteBusinesses returns favorited businesses in insertion order.
func (m *Manager) FavoriteBusinesses() []Business {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyBusinesses(m.favBusinesses)
}

// FavoriteItems returns favorited items in insertion order.
func (m *Manager) FavoriteItems() []CommunityItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyItems(m.favItems)
}

func copyBusinesses(in []Business) []Business {
	out := make([]Business, len(in))
	for i, b := range in {
		out[i] = b
		out[i].Products = append([]Product(nil), b.Products...)
	}
	return out
}

func copyItems(in []CommunityItem) []CommunityItem {
	out := make([]CommunityItem, len(in))
	copy(out, in)
	return out
}

func copyConversation(c Conversation) Conversation {
	cp := c
	cp.Messages = append([]Message(nil), c.Messages...)
	return cp
}
