package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcovillca/tanda-agent/internal/app/tools"
	"github.com/marcovillca/tanda-agent/internal/domain"
	"github.com/marcovillca/tanda-agent/internal/observability"
)

// GroupHandler covers the group-management intents: create, add
// participant, configure, status and start. Each action runs through its
// dedicated tool; the handler phrases the confirmation and declares the
// state delta.
type GroupHandler struct {
	create    tools.Tool
	addMember tools.Tool
	configure tools.Tool
	status    tools.Tool
	start     tools.Tool
}

func NewGroupHandler(groups domain.GroupService) *GroupHandler {
	return &GroupHandler{
		create:    tools.NewCreateGroupTool(groups),
		addMember: tools.NewAddParticipantTool(groups),
		configure: tools.NewConfigureTandaTool(groups),
		status:    tools.NewTandaStatusTool(groups),
		start:     tools.NewStartTandaTool(groups),
	}
}

func (h *GroupHandler) Name() string { return "group_handler" }

func (h *GroupHandler) Run(ctx context.Context, in Input) (Output, error) {
	log := observability.LoggerFromContext(ctx).With("handler", h.Name(), "intent", in.Intent)

	switch in.Intent {
	case domain.IntentCreateGroup:
		return h.runCreate(ctx, in)
	case domain.IntentAddParticipant:
		return h.runAddParticipant(ctx, in)
	case domain.IntentConfigureTanda:
		return h.runConfigure(ctx, in)
	case domain.IntentCheckStatus:
		return h.runStatus(ctx, in)
	case domain.IntentStartTanda:
		return h.runStart(ctx, in)
	default:
		log.Warn("group handler received unexpected intent")
		return Output{Reply: "No entendí qué quieres hacer con tu tanda. Escribe \"ayuda\" para ver las opciones."}, nil
	}
}

func (h *GroupHandler) runCreate(ctx context.Context, in Input) (Output, error) {
	name := groupNameFromText(in.Request.OriginalText, in.Request.SenderName)

	out, err := h.create.Call(ctx, in.toolContext(), map[string]any{"name": name})
	if err != nil {
		return Output{}, err
	}

	groupID, _ := out["group_id"].(string)
	createdName, _ := out["name"].(string)
	return Output{
		Reply: fmt.Sprintf("¡Listo! Tu tanda %q fue creada. Comparte el código %s para invitar a tus participantes.", createdName, groupID),
		StateDelta: map[string]any{
			"active_tanda_id":  groupID,
			"temp:last_action": "create_group",
		},
	}, nil
}

func (h *GroupHandler) runAddParticipant(ctx context.Context, in Input) (Output, error) {
	groupID := in.groupID()
	if groupID == "" {
		return Output{Reply: "¿A qué tanda quieres agregar al participante? Primero crea una o indícame el código."}, nil
	}
	phone := extractPhone(in.freeText(), in.UserID)
	if phone == "" {
		return Output{Reply: "Envíame el número de teléfono de la persona que quieres sumar a la tanda."}, nil
	}

	if _, err := h.addMember.Call(ctx, in.toolContext(), map[string]any{
		"group_id": groupID,
		"phone":    phone,
	}); err != nil {
		return Output{}, err
	}

	return Output{
		Reply: fmt.Sprintf("Participante agregado ✅. Invitación enviada al %s.", phone),
		StateDelta: map[string]any{
			"active_tanda_id":  groupID,
			"temp:last_action": "add_participant",
		},
	}, nil
}

func (h *GroupHandler) runConfigure(ctx context.Context, in Input) (Output, error) {
	groupID := in.groupID()
	if groupID == "" {
		return Output{Reply: "¿Qué tanda quieres configurar? Indícame el código o crea una primero."}, nil
	}

	amount := extractAmount(in.freeText())
	frequency := extractFrequency(in.freeText())
	if amount == 0 && frequency == "" {
		return Output{Reply: "Dime el monto de la cuota y la frecuencia (semanal, quincenal o mensual)."}, nil
	}

	if _, err := h.configure.Call(ctx, in.toolContext(), map[string]any{
		"group_id":  groupID,
		"amount":    amount,
		"frequency": frequency,
	}); err != nil {
		return Output{}, err
	}

	return Output{
		Reply: "Configuración actualizada ✅. Tu tanda quedó configurada.",
		StateDelta: map[string]any{
			"active_tanda_id":  groupID,
			"temp:last_action": "configure_tanda",
		},
	}, nil
}

func (h *GroupHandler) runStatus(ctx context.Context, in Input) (Output, error) {
	groupID := in.groupID()
	if groupID == "" {
		return Output{Reply: "Aún no tienes una tanda activa. Escribe \"crear tanda\" para empezar."}, nil
	}

	out, err := h.status.Call(ctx, in.toolContext(), map[string]any{"group_id": groupID})
	if err != nil {
		return Output{}, err
	}

	name, _ := out["name"].(string)
	participants, _ := out["participants"].(int)
	started, _ := out["started"].(bool)

	phase := "en preparación"
	if started {
		phase = "en ronda actual"
	}
	return Output{
		Reply: fmt.Sprintf("Estado de tu tanda %q: %d participante(s), %s.", name, participants, phase),
		StateDelta: map[string]any{
			"active_tanda_id":  groupID,
			"temp:last_action": "tanda_status",
		},
	}, nil
}

func (h *GroupHandler) runStart(ctx context.Context, in Input) (Output, error) {
	groupID := in.groupID()
	if groupID == "" {
		return Output{Reply: "¿Qué tanda quieres iniciar? Indícame el código."}, nil
	}

	if _, err := h.start.Call(ctx, in.toolContext(), map[string]any{"group_id": groupID}); err != nil {
		return Output{}, err
	}

	return Output{
		Reply: "¡Tanda iniciada! 🎉 Arrancó la ronda, avisaremos a todos los participantes.",
		StateDelta: map[string]any{
			"active_tanda_id":  groupID,
			"tanda_started":    true,
			"temp:last_action": "start_tanda",
		},
	}, nil
}

// groupNameFromText looks for a quoted name in the message, falling back to
// a name derived from the sender.
func groupNameFromText(text, senderName string) string {
	if start := strings.Index(text, "\""); start >= 0 {
		if end := strings.Index(text[start+1:], "\""); end > 0 {
			return text[start+1 : start+1+end]
		}
	}
	if senderName != "" {
		return fmt.Sprintf("Tanda de %s", senderName)
	}
	return ""
}
