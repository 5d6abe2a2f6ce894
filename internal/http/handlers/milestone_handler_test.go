package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/worklance/worklance-backend/internal/http/middleware"
)

func TestMilestoneHandler_Start_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &MilestoneHandler{milestones: nil}
	r.POST("/milestones/:id/start", handler.Start)

	req, _ := http.NewRequest("POST", "/milestones/"+uuid.NewString()+"/start", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMilestoneHandler_Approve_InvalidID_WithAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
	})
	handler := &MilestoneHandler{milestones: nil}
	r.POST("/milestones/:id/approve", handler.Approve)

	req, _ := http.NewRequest("POST", "/milestones/invalid-uuid/approve", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMilestoneHandler_Plan_InvalidJobID_WithAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
	})
	handler := &MilestoneHandler{milestones: nil}
	r.POST("/jobs/:id/milestones", handler.Plan)

	req, _ := http.NewRequest("POST", "/jobs/not-a-uuid/milestones", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
