package tools

import (
	"context"
	"fmt"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

// CreateGroupTool creates a new tanda owned by the calling user.
type CreateGroupTool struct {
	groups domain.GroupService
}

func NewCreateGroupTool(groups domain.GroupService) *CreateGroupTool {
	return &CreateGroupTool{groups: groups}
}

func (t *CreateGroupTool) Name() string { return "create_group" }

// Call expects {"name": "..."} and returns {"group_id", "name"}.
// The owner phone comes from ToolContext.
func (t *CreateGroupTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	if tctx.UserID == "" {
		return nil, fmt.Errorf("create_group: missing UserID in ToolContext")
	}

	name := getString(input, "name")
	if name == "" {
		name = fmt.Sprintf("Tanda de %s", tctx.UserID)
	}

	group, err := t.groups.CreateGroup(ctx, tctx.UserID, name)
	if err != nil {
		return nil, fmt.Errorf("create_group: %w", err)
	}

	return map[string]any{
		"group_id": group.ID,
		"name":     group.Name,
	}, nil
}

// AddParticipantTool invites a phone number into an existing tanda.
type AddParticipantTool struct {
	groups domain.GroupService
}

func NewAddParticipantTool(groups domain.GroupService) *AddParticipantTool {
	return &AddParticipantTool{groups: groups}
}

func (t *AddParticipantTool) Name() string { return "add_participant" }

// Call expects {"group_id": "...", "phone": "..."}.
func (t *AddParticipantTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	groupID := getString(input, "group_id")
	phone := getString(input, "phone")
	if groupID == "" || phone == "" {
		return nil, fmt.Errorf("add_participant: group_id and phone are required")
	}

	if err := t.groups.AddParticipant(ctx, groupID, phone); err != nil {
		return nil, fmt.Errorf("add_participant: %w", err)
	}

	return map[string]any{
		"group_id": groupID,
		"phone":    phone,
	}, nil
}

// ConfigureTandaTool sets the quota amount and payout frequency.
type ConfigureTandaTool struct {
	groups domain.GroupService
}

func NewConfigureTandaTool(groups domain.GroupService) *ConfigureTandaTool {
	return &ConfigureTandaTool{groups: groups}
}

func (t *ConfigureTandaTool) Name() string { return "configure_tanda" }

// Call expects {"group_id": "...", "amount": 100, "frequency": "semanal"}.
func (t *ConfigureTandaTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	groupID := getString(input, "group_id")
	if groupID == "" {
		return nil, fmt.Errorf("configure_tanda: group_id is required")
	}

	amount := getFloat(input, "amount")
	frequency := getString(input, "frequency")

	if err := t.groups.Configure(ctx, groupID, amount, frequency); err != nil {
		return nil, fmt.Errorf("configure_tanda: %w", err)
	}

	return map[string]any{
		"group_id":  groupID,
		"amount":    amount,
		"frequency": frequency,
	}, nil
}

// TandaStatusTool reads the current state of a tanda.
type TandaStatusTool struct {
	groups domain.GroupService
}

func NewTandaStatusTool(groups domain.GroupService) *TandaStatusTool {
	return &TandaStatusTool{groups: groups}
}

func (t *TandaStatusTool) Name() string { return "tanda_status" }

// Call expects {"group_id": "..."}.
func (t *TandaStatusTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	groupID := getString(input, "group_id")
	if groupID == "" {
		return nil, fmt.Errorf("tanda_status: group_id is required")
	}

	group, err := t.groups.Status(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("tanda_status: %w", err)
	}

	return map[string]any{
		"group_id":     group.ID,
		"name":         group.Name,
		"participants": len(group.Participants),
		"amount":       group.QuotaAmount,
		"frequency":    group.Frequency,
		"started":      group.Started,
	}, nil
}

// StartTandaTool kicks off the contribution rounds.
type StartTandaTool struct {
	groups domain.GroupService
}

func NewStartTandaTool(groups domain.GroupService) *StartTandaTool {
	return &StartTandaTool{groups: groups}
}

func (t *StartTandaTool) Name() string { return "start_tanda" }

// Call expects {"group_id": "..."}.
func (t *StartTandaTool) Call(ctx context.Context, tctx ToolContext, input map[string]any) (map[string]any, error) {
	groupID := getString(input, "group_id")
	if groupID == "" {
		return nil, fmt.Errorf("start_tanda: group_id is required")
	}

	if err := t.groups.Start(ctx, groupID); err != nil {
		return nil, fmt.Errorf("start_tanda: %w", err)
	}

	return map[string]any{"group_id": groupID}, nil
}
