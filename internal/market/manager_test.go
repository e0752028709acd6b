package market

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeStore is an in-memory Store with optional write-failure injection.
type fakeStore struct {
	slots    map[string]string
	failSets bool
	sets     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{slots: make(map[string]string)}
}

func (f *fakeStore) SetSlot(key, value string) error {
	f.sets++
	if f.failSets {
		return errors.New("disk full")
	}
	f.slots[key] = value
	return nil
}

func (f *fakeStore) GetAllSlots() (map[string]string, error) {
	out := make(map[string]string, len(f.slots))
	for k, v := range f.slots {
		out[k] = v
	}
	return out, nil
}

// fakeGateway returns canned records and can fail either call.
type fakeGateway struct {
	businesses []BusinessRecord
	items      []ItemRecord
	bizErr     error
	itemErr    error
	itemCalls  int
}

func (f *fakeGateway) FindBusinesses(ctx context.Context, query, location string) ([]BusinessRecord, error) {
	if f.bizErr != nil {
		return nil, f.bizErr
	}
	return f.businesses, nil
}

func (f *fakeGateway) FindCommunityItems(ctx context.Context, location string) ([]ItemRecord, error) {
	f.itemCalls++
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	return f.items, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestManager(t *testing.T, store *fakeStore, gw *fakeGateway) *Manager {
	t.Helper()
	if store == nil {
		store = newFakeStore()
	}
	if gw == nil {
		gw = &fakeGateway{}
	}
	m, err := NewManager(store, gw)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	m.clock = fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return m
}

func sofaDraft() ItemDraft {
	return ItemDraft{
		Title:      "Sofa Set",
		Price:      "KES 15,000",
		Condition:  "Used - Good",
		Category:   "Furniture",
		Location:   "Kilimani",
		SellerName: "Wanjiku",
	}
}

func TestRehydrateFromSlots(t *testing.T) {
	store := newFakeStore()
	store.slots["role"] = `"Seller"`
	store.slots["user-items"] = `[{"id":"user-item-x","title":"Blender","status":"available"}]`
	store.slots["has-searched"] = `true`

	m := newTestManager(t, store, nil)

	if m.CurrentRole() != RoleSeller {
		t.Errorf("role = %q, want Seller", m.CurrentRole())
	}
	if items := m.UserItems(); len(items) != 1 || items[0].Title != "Blender" {
		t.Errorf("user items = %+v", items)
	}
	if !m.HasSearched() {
		t.Error("hasSearched not rehydrated")
	}
}

// A slot that fails to deserialize must not propagate: the affected slot
// initializes to its declared default.
func TestRehydrateMalformedSlotFallsBack(t *testing.T) {
	store := newFakeStore()
	store.slots["conversations"] = `{not json`
	store.slots["seller-profile"] = `42`
	store.slots["role"] = `"Gardener"`

	m := newTestManager(t, store, nil)

	if got := m.Conversations(); len(got) != 0 {
		t.Errorf("conversations = %+v, want empty", got)
	}
	if got := m.Profile(); got.Category != "shop" || got.Hours != "Mon-Fri 9am-5pm" {
		t.Errorf("profile did not fall back to default: %+v", got)
	}
	if m.CurrentRole() != RoleBuyer {
		t.Errorf("unknown stored role should fall back to Buyer, got %q", m.CurrentRole())
	}
}

func TestAddItemDeduplicates(t *testing.T) {
	m := newTestManager(t, nil, nil)

	first, ok := m.AddItem(sofaDraft())
	if !ok {
		t.Fatal("first AddItem rejected")
	}
	if first.Status != StatusAvailable {
		t.Errorf("new item status = %q, want available", first.Status)
	}

	// Same title/category/price normalizes to the same id.
	dup := sofaDraft()
	dup.Title = "SOFA set!!"
	dup.Price = "kes 15000"
	if _, ok := m.AddItem(dup); ok {
		t.Error("duplicate AddItem accepted")
	}

	if items := m.UserItems(); len(items) != 1 {
		t.Fatalf("user items = %d, want exactly 1", len(items))
	}
}

func TestAddItemPrepends(t *testing.T) {
	m := newTestManager(t, nil, nil)

	m.AddItem(sofaDraft())
	second := sofaDraft()
	second.Title = "Blender"
	m.AddItem(second)

	items := m.UserItems()
	if len(items) != 2 {
		t.Fatalf("user items = %d, want 2", len(items))
	}
	if items[0].Title != "Blender" {
		t.Errorf("newest item not first: %q", items[0].Title)
	}
}

func TestDeleteItemCleansFavorites(t *testing.T) {
	m := newTestManager(t, nil, nil)

	item, _ := m.AddItem(sofaDraft())
	m.ToggleFavoriteItem(item)
	if !m.IsFavoriteItem(item.ID) {
		t.Fatal("item not favorited")
	}

	m.DeleteItem(item.ID)

	if items := m.UserItems(); len(items) != 0 {
		t.Errorf("user items after delete = %+v", items)
	}
	if m.IsFavoriteItem(item.ID) {
		t.Error("deleted item still favorited")
	}
}

func TestDeleteItemUnknownIDNoop(t *testing.T) {
	m := newTestManager(t, nil, nil)
	m.AddItem(sofaDraft())

	m.DeleteItem("no-such-id")

	if items := m.UserItems(); len(items) != 1 {
		t.Errorf("unrelated item removed: %+v", items)
	}
}

func TestUpdateItemStatus(t *testing.T) {
	m := newTestManager(t, nil, nil)
	item, _ := m.AddItem(sofaDraft())

	m.UpdateItemStatus(item.ID, StatusSold)
	if got := m.UserItems()[0].Status; got != StatusSold {
		t.Errorf("status = %q, want sold", got)
	}

	// Unknown id and unknown status are both silent no-ops.
	m.UpdateItemStatus("no-such-id", StatusAvailable)
	m.UpdateItemStatus(item.ID, ItemStatus("vanished"))
	if got := m.UserItems()[0].Status; got != StatusSold {
		t.Errorf("status after no-ops = %q, want sold", got)
	}
}

func TestConversationLifecycle(t *testing.T) {
	m := newTestManager(t, nil, nil)

	convo := m.SendMessage("item-1", "Sofa", "Hi")
	if convo.ID != "item-1" || convo.ItemID != "item-1" || convo.ItemName != "Sofa" {
		t.Errorf("conversation identity wrong: %+v", convo)
	}
	if len(convo.Messages) != 1 || convo.Messages[0].Sender != RoleBuyer || convo.Messages[0].Text != "Hi" {
		t.Errorf("messages = %+v", convo.Messages)
	}
	if !convo.IsReadByBuyer || convo.IsReadBySeller {
		t.Errorf("new conversation flags: buyer=%v seller=%v", convo.IsReadByBuyer, convo.IsReadBySeller)
	}
	if convo.Messages[0].ID == "" {
		t.Error("message has no id")
	}

	if !m.Reply("item-1", "Sure") {
		t.Fatal("Reply reported not found")
	}

	all := m.Conversations()
	if len(all) != 1 {
		t.Fatalf("conversations = %d, want 1 (one per item)", len(all))
	}
	got := all[0]
	if len(got.Messages) != 2 || got.Messages[1].Sender != RoleSeller {
		t.Errorf("after reply messages = %+v", got.Messages)
	}
	if got.IsReadByBuyer || !got.IsReadBySeller {
		t.Errorf("after reply flags: buyer=%v seller=%v", got.IsReadByBuyer, got.IsReadBySeller)
	}
}

func TestSendMessageAppendsToExistingConversation(t *testing.T) {
	m := newTestManager(t, nil, nil)

	m.SendMessage("item-1", "Sofa", "Hi")
	m.Reply("item-1", "Sure")
	m.SendMessage("item-1", "Sofa", "Is it still available?")

	all := m.Conversations()
	if len(all) != 1 {
		t.Fatalf("conversations = %d, want 1", len(all))
	}
	if len(all[0].Messages) != 3 {
		t.Errorf("messages = %d, want 3", len(all[0].Messages))
	}
	if all[0].IsReadBySeller {
		t.Error("seller flag should drop when buyer sends again")
	}
}

func TestReplyUnknownConversation(t *testing.T) {
	m := newTestManager(t, nil, nil)
	if m.Reply("ghost", "hello?") {
		t.Error("Reply to unknown conversation returned true")
	}
}

func TestMarkReadPerRole(t *testing.T) {
	m := newTestManager(t, nil, nil)
	m.SendMessage("item-1", "Sofa", "Hi")

	if got := m.UnreadCount(RoleSeller); got != 1 {
		t.Fatalf("seller unread = %d, want 1", got)
	}
	if got := m.UnreadCount(RoleBuyer); got != 0 {
		t.Fatalf("buyer unread = %d, want 0", got)
	}

	m.MarkRead("item-1", RoleSeller)
	if got := m.UnreadCount(RoleSeller); got != 0 {
		t.Errorf("seller unread after MarkRead = %d", got)
	}

	m.Reply("item-1", "Sure")
	if got := m.UnreadCount(RoleBuyer); got != 1 {
		t.Errorf("buyer unread after reply = %d, want 1", got)
	}
	m.MarkRead("item-1", RoleBuyer)
	if got := m.UnreadCount(RoleBuyer); got != 0 {
		t.Errorf("buyer unread after MarkRead = %d", got)
	}
}

func TestToggleFavoriteBusinessTwiceNetsToNoChange(t *testing.T) {
	m := newTestManager(t, nil, nil)

	biz := Business{ID: "joeskioskmainst", Name: "Joe's Kiosk"}
	other := Business{ID: "other", Name: "Other"}
	m.ToggleFavoriteBusiness(other)

	m.ToggleFavoriteBusiness(biz)
	if !m.IsFavoriteBusiness(biz.ID) {
		t.Fatal("business not favorited after toggle")
	}
	m.ToggleFavoriteBusiness(biz)
	if m.IsFavoriteBusiness(biz.ID) {
		t.Error("business still favorited after second toggle")
	}

	favs := m.FavoriteBusinesses()
	if len(favs) != 1 || favs[0].ID != "other" {
		t.Errorf("favorites after double toggle = %+v", favs)
	}
}

func TestToggleFavoriteItem(t *testing.T) {
	m := newTestManager(t, nil, nil)
	item, _ := m.AddItem(sofaDraft())

	m.ToggleFavoriteItem(item)
	m.ToggleFavoriteItem(item)
	if got := m.FavoriteItems(); len(got) != 0 {
		t.Errorf("favorites = %+v, want empty", got)
	}
}

func TestProfileProducts(t *testing.T) {
	m := newTestManager(t, nil, nil)

	p := DefaultProfile()
	p.BusinessName = "Joe's Kiosk"
	p.Address = "Main St"
	m.SaveProfile(p)

	// Duplicate product names are allowed, unlike item listings.
	m.AddProduct(Product{Name: "Chai", Price: "KES 50"})
	m.AddProduct(Product{Name: "Chai", Price: "KES 70"})
	m.AddProduct(Product{Name: "Mandazi", Price: "KES 20"})

	if got := m.Profile().Products; len(got) != 3 {
		t.Fatalf("products = %d, want 3", len(got))
	}

	// DeleteProduct removes every product with the matching name.
	m.DeleteProduct("Chai")
	got := m.Profile().Products
	if len(got) != 1 || got[0].Name != "Mandazi" {
		t.Errorf("products after delete = %+v", got)
	}
}

func TestWriteFailureKeepsMemoryState(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store, nil)

	store.failSets = true
	item, ok := m.AddItem(sofaDraft())
	if !ok {
		t.Fatal("AddItem rejected")
	}
	if items := m.UserItems(); len(items) != 1 || items[0].ID != item.ID {
		t.Errorf("in-memory state lost on write failure: %+v", items)
	}
	if _, stored := store.slots["user-items"]; stored {
		t.Error("slot unexpectedly written despite injected failure")
	}
}

func TestMutationsPersistSlots(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store, nil)

	m.SetRole(RoleSeller)
	m.AddItem(sofaDraft())
	m.SendMessage("item-1", "Sofa", "Hi")

	for _, slot := range []string{"role", "user-items", "conversations"} {
		if _, ok := store.slots[slot]; !ok {
			t.Errorf("slot %q not persisted", slot)
		}
	}
	if store.slots["role"] != `"Seller"` {
		t.Errorf("role slot = %q", store.slots["role"])
	}
}

func TestGettersReturnCopies(t *testing.T) {
	m := newTestManager(t, nil, nil)
	m.AddItem(sofaDraft())
	m.SendMessage("item-1", "Sofa", "Hi")

	items := m.UserItems()
	items[0].Title = "mutated"
	if m.UserItems()[0].Title == "mutated" {
		t.Error("UserItems returned a shared slice")
	}

	convos := m.Conversations()
	convos[0].Messages[0].Text = "mutated"
	if m.Conversations()[0].Messages[0].Text == "mutated" {
		t.Error("Conversations returned shared message slices")
	}
}
