package cart

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkarpushin/storefront/internal/events"
	"github.com/mkarpushin/storefront/internal/identity"
	"github.com/mkarpushin/storefront/internal/repo"
	"github.com/mkarpushin/storefront/internal/service/merge"
	"github.com/mkarpushin/storefront/internal/transport"
)

type CartHandler struct {
	Repo      *repo.CartRepository
	Engine    *merge.Engine
	Producer  events.Publisher
	JWTSecret []byte
}

// GetCart returns the caller's active cart, creating one on first read.
// Anonymous callers get the guest cookie and an empty snapshot instead;
// no row is ever written for a guest.
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, ok := identity.ResolveUserID(c, h.JWTSecret)
	if !ok {
		identity.EnsureGuestToken(c)
		return c.JSON(http.StatusOK, transport.GuestCart())
	}

	ctx := c.Request().Context()
	cart, err := h.Repo.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	items, err := h.Repo.ListItems(ctx, cart.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":   "cart_viewed",
		"userID": userID,
		"cartID": cart.ID,
	}, userID)

	return c.JSON(http.StatusOK, transport.ProjectCart(cart, items))
}

type mergeRequest struct {
	DraftItems []merge.DraftItem `json:"draft_items"`
}

type mergeResponse struct {
	Cart    transport.CartResponse `json:"cart"`
	Summary merge.Summary          `json:"summary"`
}

// MergeCart folds client-side draft items into the authenticated user's
// persisted cart. A missing or malformed draft_items payload is a no-op
// merge, not an error.
func (h *CartHandler) MergeCart(c echo.Context) error {
	userID, ok := identity.ResolveUserID(c, h.JWTSecret)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req mergeRequest
	if err := c.Bind(&req); err != nil {
		req.DraftItems = nil
	}

	result, err := h.Engine.Merge(c.Request().Context(), userID, req.DraftItems)
	if err != nil {
		if errors.Is(err, merge.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":    "cart_merged",
		"userID":  userID,
		"cartID":  result.Cart.ID,
		"added":   result.Summary.Added,
		"merged":  result.Summary.Merged,
		"removed": result.Summary.Removed,
	}, userID)

	return c.JSON(http.StatusOK, mergeResponse{
		Cart:    transport.ProjectCart(result.Cart, result.Items),
		Summary: result.Summary,
	})
}
