package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"rollcall/internal/auth"
	"rollcall/internal/idcard"
)

// GetInstitution returns the issuing-institution profile.
func (h *Handler) GetInstitution(c *gin.Context) {
	inst, err := h.cards.Institution(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inst)
}

// UpdateInstitution applies admin edits, including seal/signature uploads.
func (h *Handler) UpdateInstitution(c *gin.Context) {
	var name, address, seal, signature *string
	if v := c.PostForm("name"); v != "" {
		name = &v
	}
	if v := c.PostForm("address"); v != "" {
		address = &v
	}

	sealURL, err := h.stageUpload(c, "sealImage", "idcards")
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	if sealURL != "" {
		seal = &sealURL
	}
	signatureURL, err := h.stageUpload(c, "principalSignature", "idcards")
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	if signatureURL != "" {
		signature = &signatureURL
	}

	inst, err := h.cards.UpdateInstitution(c.Request.Context(), name, address, seal, signature)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inst)
}

// ApplyIDCard creates or updates the caller's application. Multipart fields:
// personalDetails and academicDetails (JSON strings), photo and signature (files).
func (h *Handler) ApplyIDCard(c *gin.Context) {
	var personal idcard.PersonalDetails
	var academic idcard.AcademicDetails
	if err := json.Unmarshal([]byte(c.PostForm("personalDetails")), &personal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Personal and Academic details are required"})
		return
	}
	if err := json.Unmarshal([]byte(c.PostForm("academicDetails")), &academic); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Personal and Academic details are required"})
		return
	}

	var uploads idcard.Uploads
	var err error
	if uploads.Photo, err = h.stageUpload(c, "photo", "idcards"); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	if uploads.Signature, err = h.stageUpload(c, "signature", "idcards"); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}

	claims := auth.FromContext(c)
	card, err := h.cards.Apply(c.Request.Context(), claims.UserID, personal, academic, uploads)
	if err != nil {
		var verr validator.ValidationErrors
		switch {
		case errors.As(err, &verr), errors.Is(err, idcard.ErrPhotoRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, card)
}

// stageUpload sends an optional multipart file to the asset store and returns
// its delivery URL, or "" when the field is absent.
func (h *Handler) stageUpload(c *gin.Context, field, folder string) (string, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return "", nil
	}
	defer file.Close()

	if h.uploads == nil {
		return "", errors.New("image storage not configured")
	}

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > h.cfg.MaxUploadBytes {
		return "", errors.New("file exceeds the size limit")
	}

	url, _, err := h.uploads.Store(c.Request.Context(), data, folder+"/"+header.Filename)
	if err != nil {
		log.Printf("asset upload failed for %s: %v", field, err)
		return "", err
	}
	return url, nil
}

// MyIDCard returns the caller's application.
func (h *Handler) MyIDCard(c *gin.Context) {
	claims := auth.FromContext(c)
	card, err := h.cards.GetMine(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, idcard.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ID Card application not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, card)
}

// AllIDCards returns applications, optionally filtered by ?status=.
func (h *Handler) AllIDCards(c *gin.Context) {
	cards, err := h.cards.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		if errors.Is(err, idcard.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cards == nil {
		cards = []idcard.Card{}
	}
	c.JSON(http.StatusOK, cards)
}

type statusRequest struct {
	Status          string `json:"status" binding:"required"`
	RejectionReason string `json:"rejectionReason"`
}

// UpdateIDCardStatus applies an admin review decision.
func (h *Handler) UpdateIDCardStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	card, err := h.cards.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.RejectionReason)
	if err != nil {
		switch {
		case errors.Is(err, idcard.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "ID Card not found"})
		case errors.Is(err, idcard.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, card)
}
