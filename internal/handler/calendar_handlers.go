package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/calendar"
)

// CalendarMonth classifies every day of a month for the caller. Members see
// their own ledger joined with the holiday registry; admins see only the
// holiday layer since they manage the registry, not their own attendance.
func (h *Handler) CalendarMonth(c *gin.Context) {
	now := h.now().In(h.loc)
	year, month := now.Year(), int(now.Month())
	if raw := c.Query("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be numeric"})
			return
		}
		year = v
	}
	if raw := c.Query("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be 1-12"})
			return
		}
		month = v
	}

	holidays, err := h.holidays.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	var records []attendance.Record
	if claims.Role == auth.RoleMember {
		records, err = h.ledger.ListByUser(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	days := calendar.MonthView(year, time.Month(month), holidays, records, h.loc)
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "days": days})
}
