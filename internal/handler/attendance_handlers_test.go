package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/config"
)

type memLedger struct {
	records []attendance.Record
	buckets map[string]bool
}

func newMemLedger() *memLedger {
	return &memLedger{buckets: map[string]bool{}}
}

func (m *memLedger) Insert(_ context.Context, rec attendance.Record, dayBucket string) (attendance.Record, error) {
	key := rec.UserID + "|" + dayBucket
	if m.buckets[key] {
		return attendance.Record{}, attendance.ErrAlreadySubmitted
	}
	m.buckets[key] = true
	rec.ID = fmt.Sprintf("rec-%d", len(m.records)+1)
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memLedger) TodayFor(_ context.Context, userID string, from, to time.Time) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, r := range m.records {
		if r.UserID == userID && !r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type memAssets struct {
	stored    int
	destroyed int
}

func (m *memAssets) Store(_ context.Context, _ []byte, filename string) (string, string, error) {
	m.stored++
	id := fmt.Sprintf("attendance-app/%s-%d", filename, m.stored)
	return "https://cdn/" + id + ".jpg", id, nil
}

func (m *memAssets) Destroy(_ context.Context, _ string) error {
	m.destroyed++
	return nil
}

var testNow = time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

func uploadRouter(t *testing.T, ledger *memLedger, assets *memAssets, now time.Time) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.App{Timezone: "UTC", MaxUploadBytes: 5 << 20}
	gate := attendance.NewGate(ledger, assets, nil, func() time.Time { return now }, time.UTC)
	h := New(cfg, nil, gate, nil, nil, nil, nil, nil, nil)

	r := gin.New()
	withClaims := func(next gin.HandlerFunc) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set("claims", auth.Claims{UserID: "u1", Username: "asha", Role: auth.RoleMember})
			next(c)
		}
	}
	r.POST("/upload", withClaims(h.Upload))
	r.GET("/upload-status", withClaims(h.UploadStatus))
	return r
}

func multipartUpload(t *testing.T, photo []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if photo != nil {
		part, err := w.CreateFormFile("photo", "selfie.jpg")
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadHappyPathThenStatus(t *testing.T) {
	ledger := newMemLedger()
	assets := &memAssets{}
	r := uploadRouter(t, ledger, assets, testNow)

	body, contentType := multipartUpload(t, []byte("jpeg"), map[string]string{
		"latitude": "21.5", "longitude": "78.9",
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Message    string            `json:"message"`
		Attendance attendance.Record `json:"attendance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Attendance recorded successfully!", created.Message)
	assert.Equal(t, 21.5, created.Attendance.Latitude)
	assert.Equal(t, "u1", created.Attendance.UserID)

	statusReq := httptest.NewRequest(http.MethodGet, "/upload-status", nil)
	statusRec := httptest.NewRecorder()
	r.ServeHTTP(statusRec, statusReq)

	require.Equal(t, http.StatusOK, statusRec.Code)
	var status attendance.DailyStatus
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &status))
	assert.True(t, status.HasUploadedToday)
	require.Len(t, status.TodayUploads, 1)
}

func TestUploadSecondAttemptGets429(t *testing.T) {
	ledger := newMemLedger()
	assets := &memAssets{}
	r := uploadRouter(t, ledger, assets, testNow)

	for i, wantCode := range []int{http.StatusCreated, http.StatusTooManyRequests} {
		body, contentType := multipartUpload(t, []byte("jpeg"), map[string]string{
			"latitude": "21.5", "longitude": "78.9",
		})
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equalf(t, wantCode, rec.Code, "attempt %d", i+1)
	}
	assert.Len(t, ledger.records, 1)
}

func TestUploadWithoutPhotoGets400(t *testing.T) {
	ledger := newMemLedger()
	assets := &memAssets{}
	r := uploadRouter(t, ledger, assets, testNow)

	body, contentType := multipartUpload(t, nil, map[string]string{
		"latitude": "21.5", "longitude": "78.9",
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ledger.records)
	assert.Zero(t, assets.stored)
}

func TestUploadWithoutCoordinatesGets400(t *testing.T) {
	ledger := newMemLedger()
	assets := &memAssets{}
	r := uploadRouter(t, ledger, assets, testNow)

	body, contentType := multipartUpload(t, []byte("jpeg"), map[string]string{
		"longitude": "78.9",
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ledger.records)
	assert.Zero(t, assets.stored)
}

func TestUploadWithMalformedCoordinatesGets400(t *testing.T) {
	ledger := newMemLedger()
	r := uploadRouter(t, ledger, &memAssets{}, testNow)

	body, contentType := multipartUpload(t, []byte("jpeg"), map[string]string{
		"latitude": "north", "longitude": "78.9",
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ledger.records)
}

func TestUploadOutOfRangeCoordinatesGets400(t *testing.T) {
	ledger := newMemLedger()
	r := uploadRouter(t, ledger, &memAssets{}, testNow)

	body, contentType := multipartUpload(t, []byte("jpeg"), map[string]string{
		"latitude": "91", "longitude": "78.9",
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ledger.records)
}

func TestUploadStatusEmptyDay(t *testing.T) {
	r := uploadRouter(t, newMemLedger(), &memAssets{}, testNow)

	req := httptest.NewRequest(http.MethodGet, "/upload-status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hasUploadedToday": false, "todayUploads": []}`, rec.Body.String())
}
