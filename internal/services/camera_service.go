package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"homedash/internal/models"
	"homedash/internal/validation"
)

type CameraService struct {
	db     *gorm.DB
	logger *logrus.Logger
	events *EventHub
}

func NewCameraService(db *gorm.DB, logger *logrus.Logger) *CameraService {
	return &CameraService{db: db, logger: logger}
}

func (s *CameraService) SetEventHub(hub *EventHub) {
	s.events = hub
}

type CameraCreateRequest struct {
	Name         string          `json:"name"`
	Location     *string         `json:"location"`
	StreamURL    string          `json:"stream_url"`
	Protocol     *string         `json:"protocol"`
	Enabled      *bool           `json:"enabled"`
	Capabilities json.RawMessage `json:"capabilities"`
}

type CameraUpdateRequest struct {
	Name         *string         `json:"name"`
	Location     *string         `json:"location"`
	StreamURL    *string         `json:"stream_url"`
	Protocol     *string         `json:"protocol"`
	Enabled      *bool           `json:"enabled"`
	Capabilities json.RawMessage `json:"capabilities"`
}

func (s *CameraService) List(ctx context.Context) ([]models.Camera, error) {
	var cameras []models.Camera
	if err := s.db.WithContext(ctx).Order("name asc").Find(&cameras).Error; err != nil {
		return nil, err
	}
	return cameras, nil
}

func (s *CameraService) Get(ctx context.Context, id uint) (*models.Camera, error) {
	var camera models.Camera
	if err := s.db.WithContext(ctx).First(&camera, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCameraNotFound
		}
		return nil, err
	}
	return &camera, nil
}

func (s *CameraService) Create(ctx context.Context, req *CameraCreateRequest) (*models.Camera, error) {
	name := strings.TrimSpace(req.Name)
	values := map[string]*string{
		"name":       &name,
		"stream_url": &req.StreamURL,
		"protocol":   req.Protocol,
	}
	if verr := validation.CameraSchema.Validate(values, true); verr != nil {
		return nil, verr
	}

	camera := models.Camera{
		Name:      name,
		StreamURL: req.StreamURL,
		Protocol:  "rtsp",
		Enabled:   true,
		StreamKey: uuid.NewString(),
	}
	if req.Location != nil {
		camera.Location = *req.Location
	}
	if req.Protocol != nil {
		camera.Protocol = *req.Protocol
	}
	if req.Enabled != nil {
		camera.Enabled = *req.Enabled
	}
	if len(req.Capabilities) > 0 {
		camera.Capabilities = datatypes.JSON(req.Capabilities)
	}

	if err := s.db.WithContext(ctx).Create(&camera).Error; err != nil {
		s.logger.WithError(err).Error("Failed to create camera")
		return nil, err
	}

	if s.events != nil {
		s.events.Publish("camera.created", camera)
	}
	return &camera, nil
}

func (s *CameraService) Update(ctx context.Context, id uint, req *CameraUpdateRequest) (*models.Camera, error) {
	camera, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := struct {
		name, streamURL, protocol string
	}{camera.Name, camera.StreamURL, camera.Protocol}
	if req.Name != nil {
		merged.name = strings.TrimSpace(*req.Name)
	}
	if req.StreamURL != nil {
		merged.streamURL = *req.StreamURL
	}
	if req.Protocol != nil {
		merged.protocol = *req.Protocol
	}
	values := map[string]*string{
		"name":       &merged.name,
		"stream_url": &merged.streamURL,
		"protocol":   &merged.protocol,
	}
	if verr := validation.CameraSchema.Validate(values, true); verr != nil {
		return nil, verr
	}

	camera.Name = merged.name
	camera.StreamURL = merged.streamURL
	camera.Protocol = merged.protocol
	if req.Location != nil {
		camera.Location = *req.Location
	}
	if req.Enabled != nil {
		camera.Enabled = *req.Enabled
	}
	if len(req.Capabilities) > 0 {
		camera.Capabilities = datatypes.JSON(req.Capabilities)
	}
	camera.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(camera).Error; err != nil {
		s.logger.WithError(err).Error("Failed to update camera")
		return nil, err
	}
	return camera, nil
}

func (s *CameraService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Camera{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCameraNotFound
	}
	if s.events != nil {
		s.events.Publish("camera.deleted", map[string]uint{"id": id})
	}
	return nil
}

// RotateStreamKey invalidates the current stream key. Players holding the
// old key lose access on their next connect.
func (s *CameraService) RotateStreamKey(ctx context.Context, id uint) (*models.Camera, error) {
	camera, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	camera.StreamKey = uuid.NewString()
	camera.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(camera).Error; err != nil {
		return nil, err
	}
	return camera, nil
}

// TouchLastSeen records that the camera answered a probe or stream request.
func (s *CameraService) TouchLastSeen(ctx context.Context, id uint) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.Camera{}).
		Where("id = ?", id).
		Update("last_seen", &now).Error
}
