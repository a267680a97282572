package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/holiday"
)

// ListHolidays returns the full registry.
func (h *Handler) ListHolidays(c *gin.Context) {
	entries, err := h.holidays.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []holiday.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

type saveHolidayRequest struct {
	Date   string `json:"date" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// SaveHoliday creates or updates the entry for a date.
func (h *Handler) SaveHoliday(c *gin.Context) {
	var req saveHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date and reason are required"})
		return
	}

	entry, err := h.holidays.UpsertByDate(c.Request.Context(), req.Date, req.Reason)
	if err != nil {
		if errors.Is(err, holiday.ErrBadDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// DeleteHoliday removes the entry for a date. Idempotent.
func (h *Handler) DeleteHoliday(c *gin.Context) {
	if err := h.holidays.DeleteByDate(c.Request.Context(), c.Param("date")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Holiday deleted"})
}
