package handler

import (
	"net/http"
	"strconv"

	"github.com/Vector-IT-Drew/Dash/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListingsHandler handles listing lookup HTTP requests
type ListingsHandler struct {
	repo         *repository.PostgresRepository
	defaultLimit int
	maxLimit     int
}

// NewListingsHandler creates a new listings handler
func NewListingsHandler(repo *repository.PostgresRepository, defaultLimit, maxLimit int) *ListingsHandler {
	return &ListingsHandler{repo: repo, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// List handles GET /api/v1/listings
func (h *ListingsHandler) List(c *gin.Context) {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	result, err := h.repo.GetListings(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listings: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/listings/:id
func (h *ListingsHandler) Get(c *gin.Context) {
	unitID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	listing, err := h.repo.GetListingByID(c.Request.Context(), unitID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing: " + err.Error()})
		return
	}
	if listing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Similar handles GET /api/v1/listings/:id/similar
func (h *ListingsHandler) Similar(c *gin.Context) {
	unitID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	listings, err := h.repo.SimilarListings(c.Request.Context(), unitID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get similar listings: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "count": len(listings), "data": listings})
}
