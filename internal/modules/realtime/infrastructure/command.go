package infrastructure

import (
	"log/slog"
	"time"

	"ventasWs/internal/modules/realtime/domain"
)

// CommandHandler reacts to one client command.
type CommandHandler func(client *Client, cmd domain.Command)

// CommandProcessor routes client commands by action.
type CommandProcessor struct {
	hub      *Hub
	handlers map[string]CommandHandler
}

// NewCommandProcessor registra los comandos joinGroup y leaveGroup sobre el hub.
func NewCommandProcessor(hub *Hub) *CommandProcessor {
	processor := &CommandProcessor{
		hub:      hub,
		handlers: make(map[string]CommandHandler),
	}
	processor.Register(domain.CommandJoinGroup, processor.handleJoin)
	processor.Register(domain.CommandLeaveGroup, processor.handleLeave)
	processor.Register(domain.CommandPing, processor.handlePing)
	return processor
}

func (p *CommandProcessor) Register(action string, handler CommandHandler) {
	if handler == nil {
		return
	}
	key := domain.NormalizeCommand(action)
	if key == "" {
		return
	}
	p.handlers[key] = handler
}

func (p *CommandProcessor) Process(client *Client, cmd domain.Command) {
	if client == nil {
		return
	}
	action := domain.NormalizeCommand(cmd.Action)
	if action == "" {
		return
	}
	handler, ok := p.handlers[action]
	if !ok {
		slog.Debug("ws command ignored", slog.String("clientId", client.id), slog.String("action", action))
		sendError(client, action, "unsupported action")
		return
	}
	handler(client, cmd)
}

func (p *CommandProcessor) handleJoin(client *Client, cmd domain.Command) {
	group := domain.NormalizeGroup(cmd.Group)
	if group == "" {
		sendError(client, domain.CommandJoinGroup, "missing group")
		return
	}
	p.hub.Join(client, group)
}

func (p *CommandProcessor) handleLeave(client *Client, cmd domain.Command) {
	group := domain.NormalizeGroup(cmd.Group)
	if group == "" {
		return
	}
	p.hub.Leave(client, group)
}

func (p *CommandProcessor) handlePing(client *Client, _ domain.Command) {
	client.SendMessage(&domain.Message{Event: domain.EventSystemPong, Timestamp: time.Now().UTC()})
}

func sendError(client *Client, action, reason string) {
	client.SendMessage(&domain.Message{
		Event: domain.EventSystemError,
		Data: map[string]string{
			"action": action,
			"error":  reason,
		},
		Timestamp: time.Now().UTC(),
	})
}
