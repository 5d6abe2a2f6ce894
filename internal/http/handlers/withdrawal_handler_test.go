package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/worklance/worklance-backend/internal/http/middleware"
)

func TestWithdrawalHandler_Request_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &WithdrawalHandler{withdrawals: nil}
	r.POST("/withdrawals", handler.Request)

	body := strings.NewReader(`{"amount": 1000, "destination": "DE89370400440532013000"}`)
	req, _ := http.NewRequest("POST", "/withdrawals", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWithdrawalHandler_Request_MalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
	})
	handler := &WithdrawalHandler{withdrawals: nil}
	r.POST("/withdrawals", handler.Request)

	req, _ := http.NewRequest("POST", "/withdrawals", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWithdrawalHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
	})
	handler := &WithdrawalHandler{withdrawals: nil}
	r.GET("/withdrawals/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/withdrawals/abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerHandler_ListEarnings_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &LedgerHandler{ledger: nil}
	r.GET("/earnings", handler.ListEarnings)

	req, _ := http.NewRequest("GET", "/earnings", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
