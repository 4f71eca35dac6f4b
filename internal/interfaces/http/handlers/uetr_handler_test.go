package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-hub.backend/internal/domain/entities"
	domainerrors "payment-hub.backend/internal/domain/errors"
	"payment-hub.backend/internal/interfaces/http/middleware"
)

const testUETR = "20260824120000PHUBPACS0008ABCDEFGH12"

type stubUETRService struct {
	generated string
	journey   []*entities.UETRTrackingRecord
	latest    *entities.UETRTrackingRecord
	stats     *entities.UETRStatistics
	err       error
}

func (s *stubUETRService) Generate(messageType string) (string, error) {
	return s.generated, s.err
}

func (s *stubUETRService) ValidateFormat(uetr string) bool {
	return len(uetr) == entities.UETRLength && !strings.ContainsRune(uetr, '!')
}

func (s *stubUETRService) Extract(uetr string) (*entities.UETRSegments, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entities.UETRSegments{SystemID: "PHUB", MessageTypeID: "PACS0008"}, nil
}

func (s *stubUETRService) GetLatest(_ context.Context, uetr string) (*entities.UETRTrackingRecord, error) {
	return s.latest, s.err
}

func (s *stubUETRService) GetJourney(_ context.Context, uetr string) ([]*entities.UETRTrackingRecord, error) {
	return s.journey, s.err
}

func (s *stubUETRService) Search(_ context.Context, filter *entities.UETRSearchFilter) ([]*entities.UETRTrackingRecord, int64, error) {
	return s.journey, int64(len(s.journey)), s.err
}

func (s *stubUETRService) Statistics(_ context.Context, tenantID string, from, to *time.Time) (*entities.UETRStatistics, error) {
	return s.stats, s.err
}

func newUETRRouter(svc UETRService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUETRHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.TenantKey, "demo-bank")
		c.Next()
	})
	r.POST("/uetr/generate", h.Generate)
	r.GET("/uetr/validate/:uetr", h.Validate)
	r.GET("/uetr/journey/:uetr", h.Journey)
	r.GET("/uetr/statistics", h.Statistics)
	return r
}

func TestGenerateReturnsCreated(t *testing.T) {
	r := newUETRRouter(&stubUETRService{generated: testUETR})

	req := httptest.NewRequest(http.MethodPost, "/uetr/generate", strings.NewReader(`{"messageType":"pacs.008"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, testUETR, body["uetr"])
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	r := newUETRRouter(&stubUETRService{})

	req := httptest.NewRequest(http.MethodPost, "/uetr/generate", strings.NewReader(`not-json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateReportsInvalidWithoutError(t *testing.T) {
	r := newUETRRouter(&stubUETRService{})

	req := httptest.NewRequest(http.MethodGet, "/uetr/validate/too-short", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["valid"])
}

func TestJourneyReturnsOrderedHops(t *testing.T) {
	r := newUETRRouter(&stubUETRService{journey: []*entities.UETRTrackingRecord{
		{UETR: testUETR, Status: "PENDING"},
		{UETR: testUETR, Status: "SETTLED"},
	}})

	req := httptest.NewRequest(http.MethodGet, "/uetr/journey/"+testUETR, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Journey []struct {
			Status string `json:"status"`
		} `json:"journey"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Journey, 2)
	assert.Equal(t, "PENDING", body.Journey[0].Status)
	assert.Equal(t, "SETTLED", body.Journey[1].Status)
}

func TestJourneyNotFoundMapsTo404(t *testing.T) {
	r := newUETRRouter(&stubUETRService{err: domainerrors.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/uetr/journey/"+testUETR, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatisticsScopedToTenant(t *testing.T) {
	r := newUETRRouter(&stubUETRService{stats: &entities.UETRStatistics{Total: 3, Completed: 2, Failed: 1}})

	req := httptest.NewRequest(http.MethodGet, "/uetr/statistics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Statistics struct {
			Total int64 `json:"total"`
		} `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body.Statistics.Total)
}
