package anim

import (
	"strings"

	pferrors "github.com/matzehuels/packetflow/pkg/errors"
	"github.com/matzehuels/packetflow/pkg/route"
)

// CommandType tags the kind of animation a request asks for.
type CommandType string

const (
	Lookup       CommandType = "lookup"
	Reachability CommandType = "reachability"
	RouteTrace   CommandType = "route-trace"
	LocalConfig  CommandType = "local-config"
)

// CommandTypes lists every command type in display order.
var CommandTypes = []CommandType{Lookup, Reachability, RouteTrace, LocalConfig}

// commandAliases maps shell command names to command types.
var commandAliases = map[string]CommandType{
	"lookup":       Lookup,
	"nslookup":     Lookup,
	"reachability": Reachability,
	"ping":         Reachability,
	"route-trace":  RouteTrace,
	"traceroute":   RouteTrace,
	"tracert":      RouteTrace,
	"local-config": LocalConfig,
	"ipconfig":     LocalConfig,
	"ifconfig":     LocalConfig,
	"whoami":       LocalConfig,
}

// ParseCommandType resolves a command type or one of its shell aliases
// (nslookup, ping, traceroute, tracert, ipconfig, ifconfig, whoami).
func ParseCommandType(s string) (CommandType, error) {
	if t, ok := commandAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", pferrors.New(pferrors.ErrCodeInvalidCommand, "unknown command %q", s)
}

// Valid reports whether t is a known command type.
func (t CommandType) Valid() bool {
	switch t {
	case Lookup, Reachability, RouteTrace, LocalConfig:
		return true
	}
	return false
}

// UsesRoute reports whether the command animates along a supplied route.
func (t CommandType) UsesRoute() bool {
	return t == Reachability || t == RouteTrace
}

// Request is one animation trigger from the dispatcher.
type Request struct {
	Type  CommandType `json:"type"`
	Route []route.Hop `json:"route,omitempty"`
}

// Validate checks the command type. Route content is never an error: an
// empty route selects the documented fallback for the command.
func (r Request) Validate() error {
	if !r.Type.Valid() {
		return pferrors.New(pferrors.ErrCodeInvalidCommand, "unknown command type %q", r.Type)
	}
	return nil
}
