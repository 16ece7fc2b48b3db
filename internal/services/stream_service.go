package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"

	"homedash/internal/models"
)

// StreamService brokers WebRTC sessions between dashboard viewers and
// cameras. Signaling answers go back on the HTTP response; ICE candidates
// and state changes ride the event feed, keyed by session ID.
type StreamService struct {
	api        *webrtc.API
	sessions   map[string]*StreamSession
	mutex      sync.RWMutex
	stunServer string
	events     *EventHub
	logger     *logrus.Logger
}

type StreamSession struct {
	ID             string
	CameraID       uint
	PeerConnection *webrtc.PeerConnection
	Status         string
	CreatedAt      time.Time
}

func NewStreamService(stunServer string, events *EventHub, logger *logrus.Logger) *StreamService {
	return &StreamService{
		api:        webrtc.NewAPI(),
		sessions:   make(map[string]*StreamSession),
		stunServer: stunServer,
		events:     events,
		logger:     logger,
	}
}

func (s *StreamService) createSession(camera *models.Camera) (*StreamSession, error) {
	config := webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{s.stunServer}},
		},
	}

	peerConnection, err := s.api.NewPeerConnection(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	sessionID := fmt.Sprintf("stream_%d_%d", camera.ID, time.Now().UnixNano())

	session := &StreamSession{
		ID:             sessionID,
		CameraID:       camera.ID,
		PeerConnection: peerConnection,
		Status:         "created",
		CreatedAt:      time.Now(),
	}

	peerConnection.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.logger.Infof("Stream session %s state changed to %s", sessionID, state.String())
		session.Status = state.String()

		s.events.Publish("stream.state", map[string]interface{}{
			"session_id": sessionID,
			"camera_id":  camera.ID,
			"state":      state.String(),
		})

		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateClosed {
			s.removeSession(sessionID)
		}
	})

	peerConnection.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}

		candidateData, err := json.Marshal(candidate.ToJSON())
		if err != nil {
			s.logger.Error("Failed to marshal ICE candidate:", err)
			return
		}

		s.events.Publish("stream.candidate", map[string]interface{}{
			"session_id": sessionID,
			"candidate":  json.RawMessage(candidateData),
		})
	})

	s.mutex.Lock()
	s.sessions[sessionID] = session
	s.mutex.Unlock()

	return session, nil
}

// HandleOffer opens a viewer session for the camera and returns the SDP
// answer alongside the session ID the viewer uses for trickle ICE.
func (s *StreamService) HandleOffer(camera *models.Camera, offer webrtc.SessionDescription) (string, *webrtc.SessionDescription, error) {
	if !camera.Enabled {
		return "", nil, ErrCameraDisabled
	}

	session, err := s.createSession(camera)
	if err != nil {
		return "", nil, err
	}

	if err := session.PeerConnection.SetRemoteDescription(offer); err != nil {
		s.removeSession(session.ID)
		return "", nil, fmt.Errorf("failed to set remote description: %w", err)
	}

	answer, err := session.PeerConnection.CreateAnswer(nil)
	if err != nil {
		s.removeSession(session.ID)
		return "", nil, fmt.Errorf("failed to create answer: %w", err)
	}

	if err := session.PeerConnection.SetLocalDescription(answer); err != nil {
		s.removeSession(session.ID)
		return "", nil, fmt.Errorf("failed to set local description: %w", err)
	}

	s.logger.Infof("Created stream answer for camera %d (session %s)", camera.ID, session.ID)

	return session.ID, &answer, nil
}

func (s *StreamService) HandleICECandidate(sessionID string, candidate webrtc.ICECandidateInit) error {
	session, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	if err := session.PeerConnection.AddICECandidate(candidate); err != nil {
		return fmt.Errorf("failed to add ICE candidate: %w", err)
	}

	return nil
}

func (s *StreamService) CloseSession(sessionID string) error {
	session, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	if err := session.PeerConnection.Close(); err != nil {
		s.logger.Errorf("Failed to close peer connection %s: %v", sessionID, err)
	}
	s.removeSession(sessionID)

	return nil
}

func (s *StreamService) SessionStats(sessionID string) (map[string]interface{}, error) {
	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"session_id":           session.ID,
		"camera_id":            session.CameraID,
		"connection_state":     session.PeerConnection.ConnectionState().String(),
		"ice_connection_state": session.PeerConnection.ICEConnectionState().String(),
		"ice_gathering_state":  session.PeerConnection.ICEGatheringState().String(),
		"created_at":           session.CreatedAt,
		"status":               session.Status,
	}, nil
}

func (s *StreamService) GetSessionCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.sessions)
}

func (s *StreamService) getSession(sessionID string) (*StreamSession, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("stream session %s not found", sessionID)
	}
	return session, nil
}

func (s *StreamService) removeSession(sessionID string) {
	s.mutex.Lock()
	delete(s.sessions, sessionID)
	s.mutex.Unlock()
}
