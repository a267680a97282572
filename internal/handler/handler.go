package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/holiday"
	"rollcall/internal/idcard"
	"rollcall/internal/queue"
	"rollcall/internal/user"
)

// Ledger is the admin-side view of the attendance store. Satisfied by
// *attendance.Repository.
type Ledger interface {
	ListByUser(ctx context.Context, userID string) ([]attendance.Record, error)
	ListAll(ctx context.Context, from, to *time.Time) ([]attendance.Record, error)
	GetByID(ctx context.Context, id string) (attendance.Record, error)
	DeleteByID(ctx context.Context, id string) error
	Stats(ctx context.Context, from, to time.Time) (attendance.Stats, error)
}

// Registry is the holiday store. Satisfied by *holiday.Repository.
type Registry interface {
	UpsertByDate(ctx context.Context, date, reason string) (holiday.Entry, error)
	DeleteByDate(ctx context.Context, date string) error
	ListAll(ctx context.Context) ([]holiday.Entry, error)
}

// Sweeper reconciles persisted asset deletions against the referenced set.
// Satisfied by *cleanup.Sweeper.
type Sweeper interface {
	Sweep(ctx context.Context) (destroyed, kept, remaining int, err error)
}

// Uploader stages assets outside the attendance gate (ID-card photos etc).
type Uploader interface {
	Store(ctx context.Context, data []byte, filename string) (url, publicID string, err error)
}

// Handler carries every dependency the HTTP surface needs.
type Handler struct {
	cfg      config.App
	loc      *time.Location
	now      func() time.Time
	users    *user.Service
	gate     *attendance.Gate
	ledger   Ledger
	holidays Registry
	cards    *idcard.Service
	uploads  Uploader // nil when Cloudinary is not configured
	q        queue.Queue
	sweeper  Sweeper
}

// New creates a handler.
func New(cfg config.App, users *user.Service, gate *attendance.Gate, ledger Ledger,
	holidays Registry, cards *idcard.Service, uploads Uploader, q queue.Queue, sweeper Sweeper) *Handler {
	return &Handler{
		cfg:      cfg,
		loc:      cfg.Location(),
		now:      time.Now,
		users:    users,
		gate:     gate,
		ledger:   ledger,
		holidays: holidays,
		cards:    cards,
		uploads:  uploads,
		q:        q,
		sweeper:  sweeper,
	}
}

// Register mounts all API routes.
func (h *Handler) Register(r *gin.Engine) {
	authn := auth.RequireAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer)
	admin := auth.RequireAdmin()
	member := auth.RequireMember()

	api := r.Group("/api")

	a := api.Group("/auth")
	a.POST("/signup", h.Signup)
	a.POST("/login", h.Login)
	a.POST("/login-enrollment", h.LoginEnrollment)
	a.POST("/logout", h.Logout)
	a.POST("/register", authn, admin, h.RegisterUser)
	a.GET("/me", authn, h.Me)
	a.GET("/users", authn, admin, h.ListUsers)
	a.PUT("/users/:id", authn, admin, h.UpdateUser)
	a.DELETE("/users/:id", authn, admin, h.DeleteUser)

	att := api.Group("/attendance", authn)
	att.POST("/upload", member, h.Upload)
	att.GET("/upload-status", member, h.UploadStatus)
	att.GET("/my-records", h.MyRecords)
	att.GET("/all", admin, h.AllRecords)
	att.GET("/stats", admin, h.AttendanceStats)
	att.POST("/cleanup-photos", admin, h.CleanupPhotos)
	att.DELETE("/:id", admin, h.DeleteRecord)

	hol := api.Group("/holidays")
	hol.GET("", h.ListHolidays)
	hol.POST("", authn, admin, h.SaveHoliday)
	hol.DELETE("/:date", authn, admin, h.DeleteHoliday)

	api.GET("/calendar", authn, h.CalendarMonth)

	cards := api.Group("/idcards")
	cards.GET("/institution", h.GetInstitution)
	cards.PUT("/institution", authn, admin, h.UpdateInstitution)
	cards.POST("/apply", authn, h.ApplyIDCard)
	cards.GET("/my-application", authn, h.MyIDCard)
	cards.GET("/all", authn, admin, h.AllIDCards)
	cards.PUT("/:id/status", authn, admin, h.UpdateIDCardStatus)
}
