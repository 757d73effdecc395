// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: binding/dispatch.go
// Summary: String-keyed command entry point for scripted and JSON hosts.
// Usage: cmd/ghostbridge feeds one decoded Command per input line.

package binding

import (
	"encoding/base64"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Command is one host call by name. Args follow the positional order of the
// matching Facade method.
type Command struct {
	Op   string `json:"op"`
	Args []any  `json:"args"`
}

// DecodeCommand parses a JSON command such as
// {"op":"setFocus","args":[0,true]}.
func DecodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("binding: decode command: %w", err)
	}
	if cmd.Op == "" {
		return Command{}, violation("dispatch", "command has no op")
	}
	return cmd, nil
}

type arity struct{ min, max int }

var opArity = map[string]arity{
	"ensureInitialized": {0, 0},
	"createSurface":     {2, 3},
	"resizeSurface":     {2, 3},
	"destroySurface":    {1, 1},
	"setFocus":          {2, 2},
	"setOccluded":       {2, 2},
	"sendKey":           {2, 2},
	"sendText":          {2, 2},
}

// handleBytes accepts a raw buffer or, from JSON, a base64 string.
func handleBytes(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return v
	}
	return b
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

// Dispatch runs cmd against the facade and returns the operation's result:
// a bool for most ops, an int32 for createSurface.
func (f *Facade) Dispatch(cmd Command) (any, error) {
	a, ok := opArity[cmd.Op]
	if !ok {
		return nil, violation("dispatch", "unknown op %q", cmd.Op)
	}
	if n := len(cmd.Args); n < a.min || n > a.max {
		if a.min == a.max {
			return nil, violation(cmd.Op, "expected %d arguments, got %d", a.min, n)
		}
		return nil, violation(cmd.Op, "expected %d to %d arguments, got %d", a.min, a.max, n)
	}
	args := cmd.Args
	debugLog.Printf("Binding: dispatch %s %v", cmd.Op, args)

	switch cmd.Op {
	case "ensureInitialized":
		return f.EnsureInitialized(), nil
	case "createSurface":
		return f.CreateSurface(handleBytes(args[0]), args[1], arg(args, 2))
	case "resizeSurface":
		return f.ResizeSurface(args[0], args[1], arg(args, 2))
	case "destroySurface":
		return f.DestroySurface(args[0])
	case "setFocus":
		return f.SetFocus(args[0], args[1])
	case "setOccluded":
		return f.SetOccluded(args[0], args[1])
	case "sendKey":
		return f.SendKey(args[0], args[1])
	default:
		return f.SendText(args[0], args[1])
	}
}
