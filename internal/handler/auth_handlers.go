package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/user"
)

type signupRequest struct {
	Username         string  `json:"username" binding:"required"`
	Password         string  `json:"password" binding:"required"`
	EnrollmentNumber *string `json:"enrollmentNumber"`
	Email            *string `json:"email"`
	ContactNumber    *string `json:"contactNumber"`
}

// Signup is public self-registration; the account is always a member.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	_, err := h.users.Signup(c.Request.Context(), req.Username, req.Password,
		req.EnrollmentNumber, req.Email, req.ContactNumber)
	if err != nil {
		status := http.StatusInternalServerError
		if isUniquenessErr(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully. Please login."})
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// RegisterUser is the admin-only account creation endpoint.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	u, err := h.users.AdminCreate(c.Request.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		status := http.StatusInternalServerError
		if isUniquenessErr(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": u})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a session token as JSON and cookie.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	u, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.issueSession(c, u, "Login successful")
}

type enrollmentLoginRequest struct {
	EnrollmentNumber string `json:"enrollmentNumber" binding:"required"`
}

// LoginEnrollment is the passwordless student quick login.
func (h *Handler) LoginEnrollment(c *gin.Context) {
	var req enrollmentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Enrollment Number required"})
		return
	}

	u, err := h.users.LoginByEnrollment(c.Request.Context(), req.EnrollmentNumber)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found with this enrollment number"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.issueSession(c, u, "Quick Login successful")
}

func (h *Handler) issueSession(c *gin.Context, u user.User, message string) {
	token, err := auth.Issue(u.ID, u.Username, u.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	secure := h.cfg.Env == "production" || h.cfg.Env == "prod"
	c.SetSameSite(sameSiteFor(secure))
	c.SetCookie("token", token.Value, int(h.cfg.TokenTTL.Seconds()), "/", "", secure, true)

	c.JSON(http.StatusOK, gin.H{"message": message, "user": u, "token": token.Value})
}

func sameSiteFor(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// Logout clears the session cookie.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	claims := auth.FromContext(c)
	u, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access denied. Please login."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// ListUsers returns every account, passwords excluded.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

type updateUserRequest struct {
	EnrollmentNumber *string `json:"enrollmentNumber"`
	Email            *string `json:"email"`
	ContactNumber    *string `json:"contactNumber"`
	ProfilePhoto     *string `json:"profilePhoto"`
}

// UpdateUser applies an admin edit of a user's contact identity.
func (h *Handler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.users.UpdateDetails(c.Request.Context(), c.Param("id"),
		req.EnrollmentNumber, req.Email, req.ContactNumber, req.ProfilePhoto)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		status := http.StatusInternalServerError
		if isUniquenessErr(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": u})
}

// DeleteUser removes an account and all its attendance records.
func (h *Handler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == auth.FromContext(c).UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	if _, err := h.users.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func isUniquenessErr(err error) bool {
	return errors.Is(err, user.ErrUsernameTaken) ||
		errors.Is(err, user.ErrEnrollmentTaken) ||
		errors.Is(err, user.ErrContactTaken)
}
