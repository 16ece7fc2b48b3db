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

	"homedash/internal/config"
	"homedash/internal/models"
	"homedash/internal/services"
)

func newEnergyTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:energy_handler_" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&models.EnergyReading{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	logger := logrus.New()
	svc := services.NewEnergyService(db, logger, config.EnergyConfig{PricePerKWh: 0.25, Currency: "EUR"})

	router := gin.New()
	api := router.Group("/api")
	RegisterEnergyRoutes(api, NewEnergyHandler(svc, logger))
	return router
}

func TestEnergyHandler_RecordAndSummary(t *testing.T) {
	router := newEnergyTestRouter(t)

	w := doJSON(t, router, "POST", "/api/energy/readings", gin.H{"meter": "main", "kwh": 2.0})
	assert.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, router, "POST", "/api/energy/readings", gin.H{"meter": "main", "kwh": 2.0})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "GET", "/api/energy/summary?meter=main", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var summary services.EnergySummary
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.InDelta(t, 4.0, summary.TotalKWh, 1e-9)
	assert.InDelta(t, 1.0, summary.Cost, 1e-9)
	assert.Equal(t, "EUR", summary.Currency)
}

func TestEnergyHandler_Validation(t *testing.T) {
	router := newEnergyTestRouter(t)

	w := doJSON(t, router, "POST", "/api/energy/readings", gin.H{"kwh": 1.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_METER", errCode(t, w))

	w = doJSON(t, router, "POST", "/api/energy/readings", gin.H{"meter": "main", "kwh": -1.0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_KWH", errCode(t, w))

	w = doJSON(t, router, "GET", "/api/energy/readings?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TIMESTAMP", errCode(t, w))
}

func TestEnergyHandler_DeleteReading(t *testing.T) {
	router := newEnergyTestRouter(t)

	w := doJSON(t, router, "POST", "/api/energy/readings", gin.H{"meter": "main", "kwh": 3.0})
	assert.Equal(t, http.StatusCreated, w.Code)
	var reading models.EnergyReading
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &reading))

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/energy/readings/%d", reading.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/energy/readings/%d", reading.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "READING_NOT_FOUND", errCode(t, w))
}
