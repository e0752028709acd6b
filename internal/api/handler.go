// Package api exposes the marketplace over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sokolink/sokolink/internal/market"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Assistant abstracts the AI helper calls for the API layer.
// Implemented by gemini.Client.
type Assistant interface {
	NegotiationTip(ctx context.Context, itemName, userMessage string) (string, error)
	SuggestPrice(ctx context.Context, title, description string) (string, error)
	DraftDescription(ctx context.Context, title string) (string, error)
}

// AppDeps holds dependencies for the HTTP handler.
type AppDeps struct {
	Manager   *market.Manager
	Assistant Assistant
	Token     string
}

// NewAppHandler returns the application router: an unauthenticated health
// endpoint plus bearer-protected marketplace routes.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/search", handleSearch(deps))
		r.Post("/community/browse", handleBrowseCommunity(deps))
		r.Get("/businesses", handleListBusinesses(deps))

		r.Get("/items", handleListItems(deps))
		r.Get("/items/mine", handleListMyItems(deps))
		r.Post("/items", handleAddItem(deps))
		r.Delete("/items/{id}", handleDeleteItem(deps))
		r.Patch("/items/{id}/status", handleItemStatus(deps))

		r.Get("/conversations", handleListConversations(deps))
		r.Post("/conversations", handleSendMessage(deps))
		r.Post("/conversations/{id}/reply", handleReply(deps))
		r.Post("/conversations/{id}/read", handleMarkRead(deps))
		r.Get("/conversations/unread", handleUnreadCount(deps))

		r.Get("/role", handleGetRole(deps))
		r.Put("/role", handleSetRole(deps))

		r.Get("/profile", handleGetProfile(deps))
		r.Put("/profile", handleSaveProfile(deps))
		r.Post("/profile/products", handleAddProduct(deps))
		r.Delete("/profile/products/{name}", handleDeleteProduct(deps))

		r.Get("/favorites/businesses", handleListFavBusinesses(deps))
		r.Post("/favorites/businesses", handleToggleFavBusiness(deps))
		r.Get("/favorites/items", handleListFavItems(deps))
		r.Post("/favorites/items", handleToggleFavItem(deps))

		r.Post("/assist/negotiation-tip", handleNegotiationTip(deps))
		r.Post("/assist/price-suggestion", handlePriceSuggestion(deps))
		r.Post("/assist/description", handleDraftDescription(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// --- Search ---

func handleSearch(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query    string `json:"query"`
			Location string `json:"location"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Query == "" || req.Location == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "query and location are required")
			return
		}

		if err := deps.Manager.Search(r.Context(), req.Query, req.Location); err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "search failed: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"businesses": deps.Manager.Businesses(),
			"items":      deps.Manager.AIItems(),
		})
	}
}

func handleBrowseCommunity(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Location string `json:"location"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Location == "" {
			req.Location = "Kenya"
		}

		if err := deps.Manager.BrowseCommunity(r.Context(), req.Location); err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "browsing community failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, deps.Manager.CommunityItems())
	}
}

func handleListBusinesses(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Manager.Businesses())
	}
}

// --- Items ---

func handleListItems(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Manager.CommunityItems())
	}
}

func handleListMyItems(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Manager.UserItems())
	}
}

func handleAddItem(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft market.ItemDraft
		if !decodeBody(w, r, &draft) {
			return
		}
		if draft.Title == "" || draft.Price == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title and price are required")
			return
		}

		item, ok := deps.Manager.AddItem(draft)
		if !ok {
			httpError(w, http.StatusConflict, "invalid_request_error", "an identical item is already listed")
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func handleDeleteItem(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Manager.DeleteItem(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleItemStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status market.ItemStatus `json:"status"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Status != market.StatusAvailable && req.Status != market.StatusSold {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "status must be available or sold")
			return
		}
		deps.Manager.UpdateItemStatus(chi.URLParam(r, "id"), req.Status)
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Conversations ---

func handleListConversations(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Manager.Conversations())
	}
}

func handleSendMessage(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ItemID   string `json:"itemId"`
			ItemName string `json:"itemName"`
			Text     string `json:"text"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.ItemID == "" || req.Text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "itemId and text are required")
			return
		}
		writeJSON(w, http.StatusOK, deps.Manager.SendMessage(req.ItemID, req.ItemName, req.Text))
	}
}

func handleReply(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}
		if !deps.Manager.Reply(chi.URLParam(r, "id"), req.Text) {
			httpError(w, http.StatusNotFound, "invalid_request_error", "conversation not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleMarkRead(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Role market.Role `json:"role"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Role != market.RoleBuyer && req.Role != market.RoleSeller {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "role must be Buyer or Seller")
			return
		}
		deps.Manager.MarkRead(chi.URLParam(r, "id"), req.Role)
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleUnreadCount(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := market.Role(r.URL.Query().Get("role"))
		if role != market.RoleBuyer && role != market.RoleSeller {
			role = deps.Manager.CurrentRole()
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"role":   role,
			"unread": deps.Manager.UnreadCount(role),
		})
	}
}

// --- Role ---

func handleGetRole(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"role":        deps.Manager.CurrentRole(),
			"hasSearched": deps.Manager.HasSearched(),
		})
	}
}

func handleSetRole(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Role market.Role `json:"role"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Role != market.RoleBuyer && req.Role != market.RoleSeller {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "role must be Buyer or Seller")
			return
		}
		deps.Manager.SetRole(req.Role)
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Profile ---

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Manager.Profile())
	}
}

func handleSaveProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p market.BusinessProfile
		if !decodeBody(w, r, &p) {
			return
		}
		deps.Manager.SaveProfile(p)
		writeJSON(w, http.StatusOK, deps.Manager.Profile())
	}
}

func handleAddProduct(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p market.Product
		if !decodeBody(w, r, &p) {
			return
		}
		if p.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}
		deps.Manager.AddProduct(p)
		writeJSON(w, http.StatusOK, deps.Manager.Profile())
	}
}

func handleDeleteProduct(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Manager.DeleteProduct(chi.URLParam(r, "name"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Favorites ---

func handleListFavBusinesses(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Manager.FavoriteBusinesses())
	}
}

func handleToggleFavBusiness(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b market.Business
		if !decodeBody(w, r, &b) {
			return
		}
		if b.ID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "id is required")
			return
		}
		deps.Manager.ToggleFavoriteBusiness(b)
		writeJSON(w, http.StatusOK, map[string]bool{
			"favorite": deps.Manager.IsFavoriteBusiness(b.ID),
		})
	}
}

func handleListFavItems(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Manager.FavoriteItems())
	}
}

func handleToggleFavItem(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var it market.CommunityItem
		if !decodeBody(w, r, &it) {
			return
		}
		if it.ID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "id is required")
			return
		}
		deps.Manager.ToggleFavoriteItem(it)
		writeJSON(w, http.StatusOK, map[string]bool{
			"favorite": deps.Manager.IsFavoriteItem(it.ID),
		})
	}
}

// --- AI assistance ---

func handleNegotiationTip(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ItemName string `json:"itemName"`
			Message  string `json:"message"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.ItemName == "" || req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "itemName and message are required")
			return
		}

		tip, err := deps.Assistant.NegotiationTip(r.Context(), req.ItemName, req.Message)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "negotiation tip failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"tip": tip})
	}
}

func handlePriceSuggestion(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title is required")
			return
		}

		price, err := deps.Assistant.SuggestPrice(r.Context(), req.Title, req.Description)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "price suggestion failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"price": price})
	}
}

func handleDraftDescription(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title is required")
			return
		}

		desc, err := deps.Assistant.DraftDescription(r.Context(), req.Title)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "description draft failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"description": desc})
	}
}
