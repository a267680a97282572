package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/cloudinary"
	"rollcall/internal/queue"
)

// Upload accepts one geotagged attendance photo per member per calendar day.
// Multipart fields: photo (file), latitude, longitude (decimal strings).
func (h *Handler) Upload(c *gin.Context) {
	claims := auth.FromContext(c)

	var photo []byte
	if file, _, err := c.Request.FormFile("photo"); err == nil {
		defer file.Close()
		photo, err = io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read photo failed"})
			return
		}
		if int64(len(photo)) > h.cfg.MaxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Photo exceeds the size limit"})
			return
		}
	}

	latitude, latErr := coordField(c, "latitude")
	longitude, lonErr := coordField(c, "longitude")
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Location coordinates are required"})
		return
	}

	rec, err := h.gate.Submit(c.Request.Context(), claims.UserID, claims.Username, photo, latitude, longitude)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrMissingPhoto):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Photo is required"})
		case errors.Is(err, attendance.ErrMissingLocation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Location coordinates are required"})
		case errors.Is(err, attendance.ErrInvalidCoordinates):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Location coordinates are out of range"})
		case errors.Is(err, attendance.ErrAlreadySubmitted):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Attendance already uploaded today. Try again tomorrow."})
		case errors.Is(err, attendance.ErrNoAssetStore):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		default:
			log.Printf("attendance upload failed for %s: %v", claims.Username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error recording attendance"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Attendance recorded successfully!", "attendance": rec})
}

// coordField reads an optional decimal form field. Absent fields return a nil
// pointer; malformed values are an error.
func coordField(c *gin.Context, name string) (*float64, error) {
	raw := c.PostForm(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UploadStatus reports whether the caller already submitted today.
func (h *Handler) UploadStatus(c *gin.Context) {
	claims := auth.FromContext(c)
	status, err := h.gate.StatusFor(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking attendance status"})
		return
	}
	if status.TodayUploads == nil {
		status.TodayUploads = []attendance.Record{}
	}
	c.JSON(http.StatusOK, status)
}

// MyRecords returns the caller's full attendance history, newest first.
func (h *Handler) MyRecords(c *gin.Context) {
	claims := auth.FromContext(c)
	records, err := h.ledger.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching your records"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// AllRecords returns every record, optionally bounded by startDate/endDate
// (YYYY-MM-DD, endDate inclusive).
func (h *Handler) AllRecords(c *gin.Context) {
	var from, to *time.Time
	if raw := c.Query("startDate"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be YYYY-MM-DD"})
			return
		}
		from = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be YYYY-MM-DD"})
			return
		}
		end := t.AddDate(0, 0, 1)
		to = &end
	}

	records, err := h.ledger.ListAll(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching attendance records"})
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, records)
}

// AttendanceStats returns the admin dashboard aggregate.
func (h *Handler) AttendanceStats(c *gin.Context) {
	now := h.now().In(h.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.loc)
	stats, err := h.ledger.Stats(c.Request.Context(), dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DeleteRecord removes a record and hands its photo asset to the cleanup queue.
func (h *Handler) DeleteRecord(c *gin.Context) {
	id := c.Param("id")
	rec, err := h.ledger.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Attendance record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting record"})
		return
	}

	if err := h.ledger.DeleteByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting record"})
		return
	}

	publicID := rec.PhotoPublicID
	if publicID == "" {
		publicID = cloudinary.PublicIDFromURL(rec.PhotoURL)
	}
	if publicID != "" && h.q != nil {
		err := h.q.Publish(c.Request.Context(), queue.Message{Type: queue.TypeAssetDestroy, Body: []byte(publicID)})
		if err != nil {
			log.Printf("cleanup enqueue failed for record %s: %v", id, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Attendance record and photo deleted successfully"})
}

// CleanupPhotos reconciles pending asset deletions against the set of photos
// the ledger still references: orphans are destroyed, referenced assets kept.
func (h *Handler) CleanupPhotos(c *gin.Context) {
	if h.sweeper == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cleanup not configured"})
		return
	}
	destroyed, kept, remaining, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Photo cleanup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Photo cleanup completed successfully",
		"deleted": destroyed,
		"kept":    kept,
		"pending": remaining,
	})
}
