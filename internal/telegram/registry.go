package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"finbot/internal/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Command describes a slash command with its handler and menu metadata.
type Command struct {
	Description string
	Handler     tele.HandlerFunc
	Hidden      bool
}

// Registry holds slash commands and menu views. Views are callback handlers
// keyed by the menu name carried in a navigation token.
type Registry struct {
	commands     map[string]Command
	views        map[string]tele.HandlerFunc
	viewsMu      sync.RWMutex
	viewNotFound tele.HandlerFunc
	textFallback tele.HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		views:    make(map[string]tele.HandlerFunc),
		viewNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Неизвестное действие"})
		},
	}
}

// RegisterCommand adds a new slash command.
func (r *Registry) RegisterCommand(name string, cmd Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "no_slash_prefix"),
		)
		return
	}
	if _, exists := r.commands[name]; exists {
		logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns a slice of tele.Command, optionally filtering out hidden commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: cmd, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand searches for a command by name and returns its metadata.
func (r *Registry) LookupCommand(name string) (Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	cmd, ok := r.commands[name]
	return cmd, ok
}

// RegisterView adds a callback handler for the given menu name.
func (r *Registry) RegisterView(menuName string, handler tele.HandlerFunc) error {
	if r == nil || menuName == "" || handler == nil {
		return errors.New("invalid view registration")
	}
	r.viewsMu.Lock()
	defer r.viewsMu.Unlock()
	if _, exists := r.views[menuName]; exists {
		return fmt.Errorf("view already registered: %s", menuName)
	}
	r.views[menuName] = handler
	return nil
}

// GetView safely returns a view handler by menu name.
func (r *Registry) GetView(menuName string) (tele.HandlerFunc, bool) {
	r.viewsMu.RLock()
	defer r.viewsMu.RUnlock()
	h, ok := r.views[menuName]
	return h, ok
}

// ListViews returns sorted menu names (for diagnostics).
func (r *Registry) ListViews() []string {
	r.viewsMu.RLock()
	defer r.viewsMu.RUnlock()
	names := make([]string, 0, len(r.views))
	for k := range r.views {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetViewNotFound replaces the fallback handler for unknown menu names.
func (r *Registry) SetViewNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.viewNotFound = h
	}
}

// ViewNotFound returns the current fallback view handler.
func (r *Registry) ViewNotFound() tele.HandlerFunc {
	return r.viewNotFound
}

// SetTextFallback sets a global fallback handler for unknown text messages.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands sets the Telegram bot commands shown in the command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	if err := bot.SetCommands(reg.ListCommands(true)); err != nil {
		logger.TG.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
