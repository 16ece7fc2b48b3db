package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"homedash/internal/models"
	"homedash/internal/services"
)

func newCameraTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:camera_handler_" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&models.Camera{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	logger := logrus.New()
	hub := services.NewEventHub()
	cameras := services.NewCameraService(db, logger)
	streams := services.NewStreamService("stun:stun.l.google.com:19302", hub, logger)

	router := gin.New()
	api := router.Group("/api")
	RegisterCameraRoutes(api, NewCameraHandler(cameras, streams, logger))
	return router
}

func TestCameraHandler_CRUD(t *testing.T) {
	router := newCameraTestRouter(t)

	w := doJSON(t, router, "POST", "/api/cameras", gin.H{
		"name":       "Front Door",
		"stream_url": "rtsp://192.168.1.20/stream1",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.Camera
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "rtsp", created.Protocol)
	assert.NotEmpty(t, created.StreamKey)

	w = doJSON(t, router, "GET", "/api/cameras", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list []models.Camera
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = doJSON(t, router, "PUT", fmt.Sprintf("/api/cameras/%d", created.ID), gin.H{
		"location": "porch",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var updated models.Camera
	json.Unmarshal(w.Body.Bytes(), &updated)
	assert.Equal(t, "porch", updated.Location)

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/cameras/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", fmt.Sprintf("/api/cameras/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CAMERA_NOT_FOUND", errCode(t, w))
}

func TestCameraHandler_Validation(t *testing.T) {
	router := newCameraTestRouter(t)

	w := doJSON(t, router, "POST", "/api/cameras", gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_NAME", errCode(t, w))

	w = doJSON(t, router, "POST", "/api/cameras", gin.H{"name": "X", "protocol": "ftp"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PROTOCOL", errCode(t, w))
}

func TestCameraHandler_RotateStreamKey(t *testing.T) {
	router := newCameraTestRouter(t)

	w := doJSON(t, router, "POST", "/api/cameras", gin.H{"name": "Backyard"})
	var created models.Camera
	json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(t, router, "POST", fmt.Sprintf("/api/cameras/%d/rotate-key", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var rotated models.Camera
	json.Unmarshal(w.Body.Bytes(), &rotated)
	assert.NotEqual(t, created.StreamKey, rotated.StreamKey)
}

func TestCameraHandler_StreamSessionNotFound(t *testing.T) {
	router := newCameraTestRouter(t)

	w := doJSON(t, router, "GET", "/api/streams/bogus/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "DELETE", "/api/streams/bogus", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
