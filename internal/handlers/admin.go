package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) AdminListAccounts(c *gin.Context) {
	limit := 50
	offset := 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	ctx, cancel := h.callContext(c.Request.Context())
	defer cancel()

	accounts, err := h.accounts.List(ctx, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]profileResponse, 0, len(accounts))
	for _, account := range accounts {
		items = append(items, newProfileResponse(account))
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
	})
}
