package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"homedash/internal/metrics"
	"homedash/internal/models"
	"homedash/internal/validation"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// AutomationService owns automation definitions and their trigger/condition/
// action child rows. It does not evaluate or execute rules; triggering is
// delegated to the external Home Assistant instance.
type AutomationService struct {
	db     *gorm.DB
	logger *logrus.Logger
	events *EventHub
}

func NewAutomationService(db *gorm.DB, logger *logrus.Logger) *AutomationService {
	if logger == nil {
		logger = logrus.New()
	}
	return &AutomationService{db: db, logger: logger}
}

// SetEventHub wires the optional dashboard event feed.
func (s *AutomationService) SetEventHub(hub *EventHub) {
	s.events = hub
}

func (s *AutomationService) publish(event string, data interface{}) {
	metrics.IncAutomationOp(event)
	if s.events != nil {
		s.events.Publish(event, data)
	}
}

// AutomationCreateRequest carries the create payload.
type AutomationCreateRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Enabled     *bool           `json:"enabled"`
	Source      *string         `json:"source"`
	Tags        json.RawMessage `json:"tags"`
}

// AutomationUpdateRequest is a partial update: only non-nil fields are applied.
type AutomationUpdateRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Enabled     *bool           `json:"enabled"`
	Source      *string         `json:"source"`
	Tags        json.RawMessage `json:"tags"`
	LastRun     *string         `json:"last_run"`
}

// AutomationListOptions mirrors the list query parameters.
type AutomationListOptions struct {
	Limit   int
	Offset  int
	Search  string
	Enabled *bool
	Source  string
	Sort    string
	Order   string
}

func (s *AutomationService) List(ctx context.Context, opts AutomationListOptions) ([]models.Automation, int64, error) {
	if opts.Source != "" && !validation.OneOf(opts.Source, validation.AutomationSources) {
		return nil, 0, &validation.Error{
			Code:    "INVALID_SOURCE",
			Field:   "source",
			Message: "source must be one of: local, ha",
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := s.db.WithContext(ctx).Model(&models.Automation{})
	if opts.Search != "" {
		like := "%" + opts.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if opts.Enabled != nil {
		query = query.Where("enabled = ?", *opts.Enabled)
	}
	if opts.Source != "" {
		query = query.Where("source = ?", opts.Source)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count automations: %w", err)
	}

	sort := opts.Sort
	if !validation.OneOf(sort, validation.SortFields) {
		sort = "created_at"
	}
	order := opts.Order
	if !validation.OneOf(order, validation.SortOrders) {
		order = "desc"
	}

	var automations []models.Automation
	if err := query.Order(sort + " " + order).Limit(limit).Offset(opts.Offset).Find(&automations).Error; err != nil {
		return nil, 0, fmt.Errorf("list automations: %w", err)
	}
	return automations, total, nil
}

// Get returns an automation with its children preloaded.
func (s *AutomationService) Get(ctx context.Context, id uint) (*models.Automation, error) {
	var automation models.Automation
	err := s.db.WithContext(ctx).
		Preload("Triggers").Preload("Conditions").Preload("Actions").
		First(&automation, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAutomationNotFound
		}
		return nil, fmt.Errorf("get automation %d: %w", id, err)
	}
	return &automation, nil
}

func (s *AutomationService) Create(ctx context.Context, req *AutomationCreateRequest) (*models.Automation, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	name := strings.TrimSpace(req.Name)
	if err := validation.AutomationSchema.Validate(map[string]*string{
		"name":        &name,
		"description": req.Description,
		"source":      req.Source,
	}, true); err != nil {
		return nil, err
	}
	if err := validation.Tags(req.Tags); err != nil {
		return nil, err
	}

	taken, err := s.nameTaken(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateName
	}

	now := time.Now()
	automation := &models.Automation{
		Name:      name,
		Enabled:   true,
		Source:    "local",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Description != nil {
		automation.Description = req.Description
	}
	if req.Enabled != nil {
		automation.Enabled = *req.Enabled
	}
	if req.Source != nil {
		automation.Source = *req.Source
	}
	if len(req.Tags) > 0 && string(req.Tags) != "null" {
		automation.Tags = datatypes.JSON(req.Tags)
	}

	if err := s.db.WithContext(ctx).Create(automation).Error; err != nil {
		return nil, fmt.Errorf("create automation: %w", err)
	}

	s.logger.Infof("automation created: %s (id=%d)", automation.Name, automation.ID)
	s.publish("automation.created", automation)
	return automation, nil
}

func (s *AutomationService) Update(ctx context.Context, id uint, req *AutomationUpdateRequest) (*models.Automation, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	automation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var name *string
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		name = &trimmed
	}
	if err := validation.AutomationSchema.Validate(map[string]*string{
		"name":        name,
		"description": req.Description,
		"source":      req.Source,
	}, false); err != nil {
		return nil, err
	}
	if name != nil && *name == "" {
		return nil, &validation.Error{Code: "MISSING_NAME", Field: "name", Message: "name must not be empty"}
	}
	if err := validation.Tags(req.Tags); err != nil {
		return nil, err
	}

	// Renames re-check uniqueness, excluding this row so a no-op rename
	// is allowed.
	if name != nil && *name != automation.Name {
		taken, err := s.nameTaken(ctx, *name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateName
		}
	}

	if name != nil {
		automation.Name = *name
	}
	if req.Description != nil {
		automation.Description = req.Description
	}
	if req.Enabled != nil {
		automation.Enabled = *req.Enabled
	}
	if req.Source != nil {
		automation.Source = *req.Source
	}
	if len(req.Tags) > 0 {
		if string(req.Tags) == "null" {
			automation.Tags = nil
		} else {
			automation.Tags = datatypes.JSON(req.Tags)
		}
	}
	if req.LastRun != nil {
		if *req.LastRun == "" {
			automation.LastRun = nil
		} else {
			ts, err := time.Parse(time.RFC3339, *req.LastRun)
			if err != nil {
				return nil, &validation.Error{
					Code:    "INVALID_LAST_RUN",
					Field:   "last_run",
					Message: "last_run must be an RFC3339 timestamp",
				}
			}
			automation.LastRun = &ts
		}
	}
	automation.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(automation).Error; err != nil {
		return nil, fmt.Errorf("update automation %d: %w", id, err)
	}

	s.publish("automation.updated", automation)
	return automation, nil
}

// Delete removes the automation and all of its children in one transaction
// and returns the deleted row.
func (s *AutomationService) Delete(ctx context.Context, id uint) (*models.Automation, error) {
	automation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&models.Trigger{}, &models.Condition{}, &models.Action{}} {
			if err := tx.Where("automation_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Automation{}, id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete automation %d: %w", id, err)
	}

	s.logger.Infof("automation deleted: %s (id=%d)", automation.Name, automation.ID)
	s.publish("automation.deleted", map[string]interface{}{"id": id, "name": automation.Name})
	return automation, nil
}

// Toggle flips the enabled flag. Enabling is a thin pass-through: the
// external runner picks the flag up on its own schedule.
func (s *AutomationService) Toggle(ctx context.Context, id uint, enabled bool) (*models.Automation, error) {
	automation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	automation.Enabled = enabled
	automation.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Model(&models.Automation{}).Where("id = ?", id).
		Updates(map[string]interface{}{"enabled": enabled, "updated_at": automation.UpdatedAt}).Error; err != nil {
		return nil, fmt.Errorf("toggle automation %d: %w", id, err)
	}
	s.publish("automation.updated", automation)
	return automation, nil
}

// TestRunReport is the simulated result of a test run. No trigger
// evaluation or action execution happens here.
type TestRunReport struct {
	AutomationID uint      `json:"automation_id"`
	Name         string    `json:"name"`
	Simulated    bool      `json:"simulated"`
	Triggers     int       `json:"triggers"`
	Conditions   int       `json:"conditions"`
	Actions      int       `json:"actions"`
	RanAt        time.Time `json:"ran_at"`
}

// TestRun stamps last_run and reports what the external runner would see.
func (s *AutomationService) TestRun(ctx context.Context, id uint) (*TestRunReport, error) {
	automation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&models.Automation{}).Where("id = ?", id).
		Update("last_run", now).Error; err != nil {
		return nil, fmt.Errorf("stamp last_run for automation %d: %w", id, err)
	}
	report := &TestRunReport{
		AutomationID: automation.ID,
		Name:         automation.Name,
		Simulated:    true,
		Triggers:     len(automation.Triggers),
		Conditions:   len(automation.Conditions),
		Actions:      len(automation.Actions),
		RanAt:        now,
	}
	s.publish("automation.test_run", report)
	return report, nil
}

// Duplicate deep-copies an automation and its children into a new, disabled
// automation. The whole copy runs in one transaction so a failed child
// insert cannot leave an orphaned parent behind.
func (s *AutomationService) Duplicate(ctx context.Context, id uint) (*models.Automation, error) {
	source, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var dup models.Automation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, err := copyName(tx, source.Name)
		if err != nil {
			return err
		}

		now := time.Now()
		dup = models.Automation{
			Name:        name,
			Description: source.Description,
			Enabled:     false,
			Source:      source.Source,
			Tags:        source.Tags,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&dup).Error; err != nil {
			return fmt.Errorf("create copy: %w", err)
		}

		for i := range source.Triggers {
			t := source.Triggers[i]
			t.ID = 0
			t.AutomationID = dup.ID
			t.CreatedAt = now
			t.UpdatedAt = now
			dup.Triggers = append(dup.Triggers, t)
		}
		if len(dup.Triggers) > 0 {
			if err := tx.Create(&dup.Triggers).Error; err != nil {
				return fmt.Errorf("copy triggers: %w", err)
			}
		}

		for i := range source.Conditions {
			c := source.Conditions[i]
			c.ID = 0
			c.AutomationID = dup.ID
			c.CreatedAt = now
			c.UpdatedAt = now
			dup.Conditions = append(dup.Conditions, c)
		}
		if len(dup.Conditions) > 0 {
			if err := tx.Create(&dup.Conditions).Error; err != nil {
				return fmt.Errorf("copy conditions: %w", err)
			}
		}

		for i := range source.Actions {
			a := source.Actions[i]
			a.ID = 0
			a.AutomationID = dup.ID
			a.CreatedAt = now
			a.UpdatedAt = now
			dup.Actions = append(dup.Actions, a)
		}
		if len(dup.Actions) > 0 {
			if err := tx.Create(&dup.Actions).Error; err != nil {
				return fmt.Errorf("copy actions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("automation duplicated: %s -> %s (id=%d)", source.Name, dup.Name, dup.ID)
	s.publish("automation.duplicated", &dup)
	return &dup, nil
}

// copyName picks "<base> (Copy)" or the lowest unused "<base> (Copy N)".
// One LIKE query bounds the search instead of probing name by name.
func copyName(tx *gorm.DB, base string) (string, error) {
	var existing []string
	err := tx.Model(&models.Automation{}).
		Where("name = ? OR name LIKE ?", base+" (Copy)", base+" (Copy %").
		Pluck("name", &existing).Error
	if err != nil {
		return "", fmt.Errorf("probe copy names: %w", err)
	}

	taken := make(map[string]bool, len(existing))
	for _, n := range existing {
		taken[n] = true
	}

	candidate := base + " (Copy)"
	if !taken[candidate] {
		return candidate, nil
	}
	for n := 2; ; n++ {
		candidate = fmt.Sprintf("%s (Copy %d)", base, n)
		if !taken[candidate] {
			return candidate, nil
		}
	}
}

func (s *AutomationService) nameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.Automation{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check name uniqueness: %w", err)
	}
	return count > 0, nil
}

// exists reports whether the parent automation is present, without loading
// its children.
func (s *AutomationService) exists(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Automation{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check automation %d: %w", id, err)
	}
	if count == 0 {
		return ErrAutomationNotFound
	}
	return nil
}
