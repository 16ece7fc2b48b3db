package services

import (
	"context"
	"errors"
	"testing"

	"homedash/internal/validation"
)

func TestTriggerCRUD(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, &AutomationCreateRequest{Name: "Trigger Host"})

	_, err := svc.CreateTrigger(ctx, a.ID, &TriggerRequest{Type: strptr("weather")})
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Code != "INVALID_TYPE" {
		t.Fatalf("expected INVALID_TYPE, got %v", err)
	}

	trigger, err := svc.CreateTrigger(ctx, a.ID, &TriggerRequest{
		Type:     strptr("entity_state"),
		EntityID: strptr("sensor.door"),
		State:    strptr("open"),
	})
	if err != nil {
		t.Fatalf("create trigger failed: %v", err)
	}

	// Partial update leaves unspecified fields alone.
	updated, err := svc.UpdateTrigger(ctx, a.ID, trigger.ID, &TriggerRequest{State: strptr("closed")})
	if err != nil {
		t.Fatalf("update trigger failed: %v", err)
	}
	if updated.State != "closed" {
		t.Errorf("state not updated: %q", updated.State)
	}
	if updated.EntityID != "sensor.door" || updated.Type != "entity_state" {
		t.Error("untouched trigger fields changed")
	}

	list, err := svc.ListTriggers(ctx, a.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list triggers: %v (len=%d)", err, len(list))
	}

	if err := svc.DeleteTrigger(ctx, a.ID, trigger.ID); err != nil {
		t.Fatalf("delete trigger failed: %v", err)
	}
	if err := svc.DeleteTrigger(ctx, a.ID, trigger.ID); !errors.Is(err, ErrChildNotFound) {
		t.Fatalf("expected ErrChildNotFound on re-delete, got %v", err)
	}
}

func TestTrigger_ParentMissing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.ListTriggers(ctx, 42)
	if !errors.Is(err, ErrAutomationNotFound) {
		t.Fatalf("expected ErrAutomationNotFound, got %v", err)
	}
	_, err = svc.CreateTrigger(ctx, 42, &TriggerRequest{Type: strptr("time")})
	if !errors.Is(err, ErrAutomationNotFound) {
		t.Fatalf("expected ErrAutomationNotFound, got %v", err)
	}
}

func TestChild_CrossAutomationIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, &AutomationCreateRequest{Name: "Owner"})
	b, _ := svc.Create(ctx, &AutomationCreateRequest{Name: "Intruder"})
	trigger, _ := svc.CreateTrigger(ctx, a.ID, &TriggerRequest{Type: strptr("time"), Time: strptr("08:00")})

	// Addressing a's trigger through b must not find it.
	_, err := svc.UpdateTrigger(ctx, b.ID, trigger.ID, &TriggerRequest{Time: strptr("09:00")})
	if !errors.Is(err, ErrChildNotFound) {
		t.Fatalf("expected ErrChildNotFound, got %v", err)
	}
	if err := svc.DeleteTrigger(ctx, b.ID, trigger.ID); !errors.Is(err, ErrChildNotFound) {
		t.Fatalf("expected ErrChildNotFound, got %v", err)
	}

	// The real owner still sees it untouched.
	fresh, err := svc.ListTriggers(ctx, a.ID)
	if err != nil || len(fresh) != 1 || fresh[0].Time != "08:00" {
		t.Fatalf("owner's trigger was mutated: %v %+v", err, fresh)
	}
}

func TestConditionEntityRule(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, &AutomationCreateRequest{Name: "Condition Host"})

	_, err := svc.CreateCondition(ctx, a.ID, &ConditionRequest{Type: strptr("numeric")})
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Code != "MISSING_ENTITY_ID" {
		t.Fatalf("expected MISSING_ENTITY_ID, got %v", err)
	}

	condition, err := svc.CreateCondition(ctx, a.ID, &ConditionRequest{
		Type:     strptr("numeric"),
		EntityID: strptr("sensor.temp"),
		Operator: strptr("greater"),
		Value:    strptr("20"),
	})
	if err != nil {
		t.Fatalf("create condition failed: %v", err)
	}
	if condition.LogicalOperator != "and" {
		t.Errorf("logical_operator should default to and, got %q", condition.LogicalOperator)
	}

	// Updating only value keeps type/operator/entity_id.
	updated, err := svc.UpdateCondition(ctx, a.ID, condition.ID, &ConditionRequest{Value: strptr("25")})
	if err != nil {
		t.Fatalf("update condition failed: %v", err)
	}
	if updated.Value != "25" || updated.Type != "numeric" || updated.Operator != "greater" || updated.EntityID != "sensor.temp" {
		t.Errorf("partial update corrupted row: %+v", updated)
	}

	// The entity rule holds against the merged row: an update cannot blank
	// entity_id out of a numeric condition.
	_, err = svc.UpdateCondition(ctx, a.ID, condition.ID, &ConditionRequest{EntityID: strptr("")})
	if !errors.As(err, &verr) || verr.Code != "MISSING_ENTITY_ID" {
		t.Fatalf("expected MISSING_ENTITY_ID on merged update, got %v", err)
	}

	// Time conditions need no entity.
	if _, err := svc.CreateCondition(ctx, a.ID, &ConditionRequest{
		Type:  strptr("time"),
		Value: strptr("22:00"),
	}); err != nil {
		t.Fatalf("time condition rejected: %v", err)
	}
}

func TestCondition_EmptyLogicalOperatorRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, &AutomationCreateRequest{Name: "Operator Host"})
	condition, err := svc.CreateCondition(ctx, a.ID, &ConditionRequest{
		Type:  strptr("time"),
		Value: strptr("07:00"),
	})
	if err != nil {
		t.Fatalf("create condition failed: %v", err)
	}

	// Blanking logical_operator would leave the row outside {and, or};
	// an explicit empty string is out-of-enum, not a reset.
	_, err = svc.UpdateCondition(ctx, a.ID, condition.ID, &ConditionRequest{
		LogicalOperator: strptr(""),
	})
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Code != "INVALID_LOGICAL_OPERATOR" {
		t.Fatalf("expected INVALID_LOGICAL_OPERATOR, got %v", err)
	}

	_, err = svc.UpdateCondition(ctx, a.ID, condition.ID, &ConditionRequest{
		Operator: strptr(""),
	})
	if !errors.As(err, &verr) || verr.Code != "INVALID_OPERATOR" {
		t.Fatalf("expected INVALID_OPERATOR, got %v", err)
	}

	fresh, err := svc.UpdateCondition(ctx, a.ID, condition.ID, &ConditionRequest{Value: strptr("08:00")})
	if err != nil {
		t.Fatalf("follow-up update failed: %v", err)
	}
	if fresh.LogicalOperator != "and" {
		t.Errorf("logical_operator should still be and, got %q", fresh.LogicalOperator)
	}
}

func TestActionCRUD(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, &AutomationCreateRequest{Name: "Action Host"})

	action, err := svc.CreateAction(ctx, a.ID, &ActionRequest{
		Type:     strptr("service_call"),
		Service:  strptr("light.turn_on"),
		EntityID: strptr("light.kitchen"),
		Data:     []byte(`{"brightness": 200}`),
	})
	if err != nil {
		t.Fatalf("create action failed: %v", err)
	}
	if len(action.Data) == 0 {
		t.Error("action data not stored")
	}

	updated, err := svc.UpdateAction(ctx, a.ID, action.ID, &ActionRequest{Data: []byte(`null`)})
	if err != nil {
		t.Fatalf("update action failed: %v", err)
	}
	if updated.Data != nil {
		t.Error("null data should clear the column")
	}
	if updated.Service != "light.turn_on" {
		t.Error("untouched service changed")
	}

	if err := svc.DeleteAction(ctx, a.ID, action.ID); err != nil {
		t.Fatalf("delete action failed: %v", err)
	}
	list, _ := svc.ListActions(ctx, a.ID)
	if len(list) != 0 {
		t.Errorf("expected empty action list, got %d", len(list))
	}
}
