package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"homedash/internal/models"
	"homedash/internal/validation"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Trigger, condition and action rows are owned exclusively by their parent
// automation. Every operation below verifies the parent first, and
// update/delete additionally verify the child belongs to that parent.

// TriggerRequest carries create and partial-update payloads for triggers.
type TriggerRequest struct {
	Type      *string `json:"type"`
	EntityID  *string `json:"entity_id"`
	Attribute *string `json:"attribute"`
	State     *string `json:"state"`
	Time      *string `json:"time"`
	Offset    *string `json:"offset"`
	Topic     *string `json:"topic"`
	Payload   *string `json:"payload"`
}

// ConditionRequest carries create and partial-update payloads for conditions.
type ConditionRequest struct {
	Type            *string `json:"type"`
	EntityID        *string `json:"entity_id"`
	Attribute       *string `json:"attribute"`
	Operator        *string `json:"operator"`
	Value           *string `json:"value"`
	LogicalOperator *string `json:"logical_operator"`
}

// ActionRequest carries create and partial-update payloads for actions.
type ActionRequest struct {
	Type     *string         `json:"type"`
	Service  *string         `json:"service"`
	EntityID *string         `json:"entity_id"`
	Data     json.RawMessage `json:"data"`
	Topic    *string         `json:"topic"`
	Payload  *string         `json:"payload"`
	SceneID  *string         `json:"scene_id"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// ---- Triggers ----

func (s *AutomationService) ListTriggers(ctx context.Context, automationID uint) ([]models.Trigger, error) {
	if err := s.exists(ctx, automationID); err != nil {
		return nil, err
	}
	var triggers []models.Trigger
	if err := s.db.WithContext(ctx).Where("automation_id = ?", automationID).
		Order("id ASC").Find(&triggers).Error; err != nil {
		return nil, fmt.Errorf("list triggers: %w", err)
	}
	return triggers, nil
}

func (s *AutomationService) CreateTrigger(ctx context.Context, automationID uint, req *TriggerRequest) (*models.Trigger, error) {
	if err := s.exists(ctx, automationID); err != nil {
		return nil, err
	}
	if err := validation.TriggerSchema.Validate(map[string]*string{"type": req.Type}, true); err != nil {
		return nil, err
	}

	now := time.Now()
	trigger := &models.Trigger{
		AutomationID: automationID,
		Type:         *req.Type,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	setString(&trigger.EntityID, req.EntityID)
	setString(&trigger.Attribute, req.Attribute)
	setString(&trigger.State, req.State)
	setString(&trigger.Time, req.Time)
	setString(&trigger.Offset, req.Offset)
	setString(&trigger.Topic, req.Topic)
	setString(&trigger.Payload, req.Payload)

	if err := s.db.WithContext(ctx).Create(trigger).Error; err != nil {
		return nil, fmt.Errorf("create trigger: %w", err)
	}
	s.touchAutomation(ctx, automationID)
	return trigger, nil
}

func (s *AutomationService) UpdateTrigger(ctx context.Context, automationID, triggerID uint, req *TriggerRequest) (*models.Trigger, error) {
	if err := s.exists(ctx, automationID); err != nil {
		return nil, err
	}
	var trigger models.Trigger
	if err := s.db.WithContext(ctx).
		First(&trigger, "id = ? AND automation_id = ?", triggerID, automationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrChildNotFound
		}
		return nil, fmt.Errorf("get trigger %d: %w", triggerID, err)
	}

	if err := validation.TriggerSchema.Validate(map[string]*string{"type": req.Type}, false); err != nil {
		return nil, err
	}

	setString(&trigger.Type, req.Type)
	setString(&trigger.EntityID, req.EntityID)
	setString(&trigger.Attribute, req.Attribute)
	setString(&trigger.State, req.State)
	setString(&trigger.Time, req.Time)
	setString(&trigger.Offset, req.Offset)
	setString(&trigger.Topic, req.Topic)
	setString(&trigger.Payload, req.Payload)
	trigger.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(&trigger).Error; err != nil {
		return nil, fmt.Errorf("update trigger %d: %w", triggerID, err)
	}
	return &trigger, nil
}

func (s *AutomationService) DeleteTrigger(ctx context.Context, automationID, triggerID uint) error {
	if err := s.exists(ctx, automationID); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Where("id = ? AND automation_id = ?", triggerID, automationID).
		Delete(&models.Trigger{})
	if result.Error != nil {
		return fmt.Errorf("delete trigger %d: %w", triggerID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrChildNotFound
	}
	return nil
}

// ---- Conditions ----

func (s *AutomationService) ListConditions(ctx context.Context, automationID uint) ([]models.Condition, error) {
	if err := s.exists(ctx, automationID); err != nil {
		return nil, err
	}
	var conditions []models.Condition
	if err := s.db.WithContext(ctx).Where("automation_id = ?", automationID).
		Order("id ASC").Find(&conditions).Error; err != nil {
		return nil, fmt.Errorf("list conditions: %w", err)
	}
	return conditions, nil
}

func (s *AutomationService) CreateCondition(ctx context.Context, automationID uint, req *ConditionRequest) (*models.Condition, error) {
	if err := s.exists(ctx, automationID); err != nil {
		return nil, err
	}
	if err := validation.ConditionSchema.Validate(map[string]*string{
		"type":             req.Type,
		"operator":         req.Operator,
		"logical_operator": req.LogicalOperator,
	}, true); err != nil {
		return nil, err
	}

	entityID := ""
	if req.EntityID != nil {
		entityID = *req.EntityID
	}
	if err := validation.ConditionEntityID(*req.Type, entityID); err != nil {
		return nil, err
	}

	now := time.Now()
	condition := &models.Condition{
		AutomationID:    automationID,
		Type:            *req.Type,
		EntityID:        entityID,
		LogicalOperator: "and",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	setString(&condition.Attribute, req.Attribute)
	setString(&condition.Operator, req.Operator)
	setString(&condition.Value, req.Value)
	setString(&condition.LogicalOperator, req.LogicalOperator)

	if err := s.db.WithContext(ctx).Create(condition).Error; err != nil {
		return nil, fmt.Errorf("create condition: %w", err)
	}
	s.touchAutomation(ctx, automationID)
	return condition, nil
}

func (s *AutomationService) UpdateCondition(ctx context.Context, automationID, conditionID uint, req *ConditionRequest) (*models.Condition, error) {
	if err := s.exists(ctx, automationID); err != nil {
		return nil, err
	}
	var condition models.Condition
	if err := s.db.WithContext(ctx).
		First(&condition, "id = ? AND automation_id = ?", conditionID, automationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrChildNotFound
		}
		return nil, fmt.Errorf("get condition %d: %w", conditionID, err)
	}

	if err := validation.ConditionSchema.Validate(map[string]*string{
		"type":             req.Type,
		"operator":         req.Operator,
		"logical_operator": req.LogicalOperator,
	}, false); err != nil {
		return nil, err
	}

	setString(&condition.Type, req.Type)
	setString(&condition.EntityID, req.EntityID)
	setString(&condition.Attribute, req.Attribute)
	setString(&condition.Operator, req.Operator)
	setString(&condition.Value, req.Value)
	setString(&condition.LogicalOperator, req.LogicalOperator)

	// The entity rule is checked against the merged row so an update cannot
	// strip entity_id from an entity_state/numeric condition.
	if err := validation.ConditionEntityID(condition.Type, condition.EntityID); err != nil {
		return nil, err
	}
	condition.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(&condition).Error; err != nil {
		return nil, fmt.Errorf("update condition %d: %w", conditionID, err)
	}
	return &condition, nil
}

func (s *AutomationService) DeleteCondition(ctx context.Context, automationID, conditionID uint) error {
	if err := s.exists(ctx, automationID); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Where("id = ? AND automation_id = ?", conditionID, automationID).
		Delete(&models.Condition{})
	if result.Error != nil {
		return fmt.Errorf("delete condition %d: %w", conditionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrChildNotFound
	}
	return nil
}

// ---- Actions ----

func (s *AutomationService) ListActions(ctx context.Context, automationID uint) ([]models.Action, error) {
	if err := s.exists(ctx, automationID); err != nil {
		return nil, err
	}
	var actions []models.Action
	if err := s.db.WithContext(ctx).Where("automation_id = ?", automationID).
		Order("id ASC").Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return actions, nil
}

func (s *AutomationService) CreateAction(ctx context.Context, automationID uint, req *ActionRequest) (*models.Action, error) {
	if err := s.exists(ctx, automationID); err != nil {
		return nil, err
	}
	if err := validation.ActionSchema.Validate(map[string]*string{"type": req.Type}, true); err != nil {
		return nil, err
	}

	now := time.Now()
	action := &models.Action{
		AutomationID: automationID,
		Type:         *req.Type,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	setString(&action.Service, req.Service)
	setString(&action.EntityID, req.EntityID)
	setString(&action.Topic, req.Topic)
	setString(&action.Payload, req.Payload)
	setString(&action.SceneID, req.SceneID)
	if len(req.Data) > 0 && string(req.Data) != "null" {
		action.Data = datatypes.JSON(req.Data)
	}

	if err := s.db.WithContext(ctx).Create(action).Error; err != nil {
		return nil, fmt.Errorf("create action: %w", err)
	}
	s.touchAutomation(ctx, automationID)
	return action, nil
}

func (s *AutomationService) UpdateAction(ctx context.Context, automationID, actionID uint, req *ActionRequest) (*models.Action, error) {
	if err := s.exists(ctx, automationID); err != nil {
		return nil, err
	}
	var action models.Action
	if err := s.db.WithContext(ctx).
		First(&action, "id = ? AND automation_id = ?", actionID, automationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrChildNotFound
		}
		return nil, fmt.Errorf("get action %d: %w", actionID, err)
	}

	if err := validation.ActionSchema.Validate(map[string]*string{"type": req.Type}, false); err != nil {
		return nil, err
	}

	setString(&action.Type, req.Type)
	setString(&action.Service, req.Service)
	setString(&action.EntityID, req.EntityID)
	setString(&action.Topic, req.Topic)
	setString(&action.Payload, req.Payload)
	setString(&action.SceneID, req.SceneID)
	if len(req.Data) > 0 {
		if string(req.Data) == "null" {
			action.Data = nil
		} else {
			action.Data = datatypes.JSON(req.Data)
		}
	}
	action.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(&action).Error; err != nil {
		return nil, fmt.Errorf("update action %d: %w", actionID, err)
	}
	return &action, nil
}

func (s *AutomationService) DeleteAction(ctx context.Context, automationID, actionID uint) error {
	if err := s.exists(ctx, automationID); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Where("id = ? AND automation_id = ?", actionID, automationID).
		Delete(&models.Action{})
	if result.Error != nil {
		return fmt.Errorf("delete action %d: %w", actionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrChildNotFound
	}
	return nil
}

// touchAutomation bumps the parent's updated_at after a child insert so
// list views sorted by updated_at surface recently edited automations.
func (s *AutomationService) touchAutomation(ctx context.Context, id uint) {
	if err := s.db.WithContext(ctx).Model(&models.Automation{}).Where("id = ?", id).
		Update("updated_at", time.Now()).Error; err != nil {
		s.logger.Warnf("touch automation %d: %v", id, err)
	}
}
