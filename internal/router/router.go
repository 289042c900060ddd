// Package router implements the ingress surface a chat-platform adapter
// calls into: HandlePublicRequest for group messages and
// HandlePrivateRequest for direct messages. It classifies each message by
// its leading prefix ('#' for meta commands available to anyone, '%' for
// admin commands gated on the configured admin list, anything else routed
// to whichever match the sender is bound to) exactly as
// original_source/bot_core/bot_core.cpp:HandleRequest does.
package router

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"boardkeeper/internal/config"
	"boardkeeper/internal/match"
	"boardkeeper/internal/registry"
)

// GameModule is what the router needs to know about one registered game in
// order to create a match for it; the module loader that discovers these
// from a resource directory is out of scope (see SPEC_FULL.md §1).
type GameModule struct {
	Name  string
	Build match.GameFactory
}

// Router dispatches incoming chat messages to meta handlers, admin
// handlers, or the match a user/group is currently bound to.
type Router struct {
	log      *zap.Logger
	matches  *registry.Registry[*match.Match]
	games    map[string]GameModule
	newMatch func(gameName string, groupID, hostUID uint64) (*match.Match, error)
}

// New builds a Router. newMatch is supplied by the caller (typically the
// container) so the router never constructs msgsink callbacks itself.
func New(log *zap.Logger, matches *registry.Registry[*match.Match], games map[string]GameModule,
	newMatch func(gameName string, groupID, hostUID uint64) (*match.Match, error)) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{log: log, matches: matches, games: games, newMatch: newMatch}
}

// HandlePublicRequest routes a group message from userID in groupID.
func (r *Router) HandlePublicRequest(groupID, userID uint64, msg string) string {
	return r.dispatch(groupID, userID, msg, true)
}

// HandlePrivateRequest routes a direct message from userID.
func (r *Router) HandlePrivateRequest(userID uint64, msg string) string {
	return r.dispatch(0, userID, msg, false)
}

func (r *Router) dispatch(groupID, userID uint64, msg string, isPublic bool) string {
	msg = strings.TrimSpace(msg)
	switch {
	case strings.HasPrefix(msg, "#"):
		return r.handleMeta(groupID, userID, strings.TrimSpace(strings.TrimPrefix(msg, "#")), isPublic)
	case strings.HasPrefix(msg, "%"):
		if !config.IsAdmin(userID) {
			return "[error] admin privilege required"
		}
		return r.handleAdmin(strings.TrimSpace(strings.TrimPrefix(msg, "%")), isPublic)
	default:
		return r.handleInGame(groupID, userID, msg, isPublic)
	}
}

// handleInGame forwards msg to whichever match userID (privately) or
// groupID (publicly) is currently bound to, per spec.md §4.10's routing
// table. A public message only reaches a match bound to that exact group;
// a private message reaches whichever match the user is bound to,
// regardless of group.
func (r *Router) handleInGame(groupID, userID uint64, msg string, isPublic bool) string {
	var m *match.Match
	if isPublic {
		v, _, ok := r.matches.GetByGroup(groupID)
		if !ok {
			return ""
		}
		m = v
	} else {
		v, _, ok := r.matches.GetByUser(userID)
		if !ok {
			return ""
		}
		m = v
	}
	_, err := m.Request(userID, msg, isPublic)
	if err != nil {
		return fmt.Sprintf("[error] %v", err)
	}
	return ""
}

func (r *Router) handleMeta(groupID, userID uint64, msg string, isPublic bool) string {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return "[error] empty meta command"
	}
	switch fields[0] {
	case "新游戏", "new":
		if len(fields) < 2 {
			return "[error] usage: #new <game>"
		}
		return r.newGame(fields[1], groupID, userID, isPublic)
	case "加入", "join":
		v, _, ok := r.matches.GetByGroup(groupID)
		if isPublic && ok {
			if err := v.Join(userID); err != nil {
				return fmt.Sprintf("[error] %v", err)
			}
			_ = r.matches.BindUser(userID, v.ID())
			return "joined"
		}
		return "[error] no match to join here"
	case "退出", "leave":
		v, id, ok := r.matches.GetByUser(userID)
		if !ok {
			return "[error] you are not in a match"
		}
		if err := v.Leave(userID); err != nil {
			return fmt.Sprintf("[error] %v", err)
		}
		r.matches.UnbindUser(userID)
		_ = id
		return "left"
	case "开始", "start":
		v, _, ok := r.matches.GetByGroup(groupID)
		if !ok {
			v, _, ok = r.matches.GetByUser(userID)
		}
		if !ok {
			return "[error] no match here"
		}
		if err := v.GameStart(userID); err != nil {
			return fmt.Sprintf("[error] %v", err)
		}
		return "started"
	case "信息", "info":
		v, _, ok := r.matches.GetByGroup(groupID)
		if !ok {
			v, _, ok = r.matches.GetByUser(userID)
		}
		if !ok {
			return "[error] no match here"
		}
		return v.ShowInfo()
	default:
		return "[error] unknown meta command"
	}
}

// handleAdmin recognizes the 终止/terminate admin command but terminates
// nothing: it always replies with an error. Every other admin command is
// reported as unknown.
func (r *Router) handleAdmin(msg string, isPublic bool) string {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return "[error] empty admin command"
	}
	switch fields[0] {
	case "终止", "terminate":
		return "[error] terminate requires a match id argument"
	default:
		return "[error] unknown admin command"
	}
}

func (r *Router) newGame(gameName string, groupID, hostUID uint64, isPublic bool) string {
	if _, ok := r.games[gameName]; !ok {
		return fmt.Sprintf("[error] unknown game %q", gameName)
	}
	if isPublic {
		if _, _, ok := r.matches.GetByGroup(groupID); ok {
			return "[error] this group already has a match in progress"
		}
	}
	if _, _, ok := r.matches.GetByUser(hostUID); ok {
		return "[error] you are already in a match"
	}
	m, err := r.newMatch(gameName, groupID, hostUID)
	if err != nil {
		return fmt.Sprintf("[error] %v", err)
	}
	id := r.matches.Create(m)
	if isPublic {
		_ = r.matches.BindGroup(groupID, id)
	}
	_ = r.matches.BindUser(hostUID, id)
	return fmt.Sprintf("created match #%d", id)
}
