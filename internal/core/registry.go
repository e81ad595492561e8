package core

import (
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Command{}
)

// RegisterCommand registers a command wrapped in the given middlewares.
// The first middleware is the innermost.
func RegisterCommand(cmd Command, mws ...Middleware) {
	wrapped := ApplyMiddlewares(cmd, mws...)

	registryMu.Lock()
	defer registryMu.Unlock()
	registry[cmd.Name()] = wrapped
}

// GetCommand returns the command with the given name
func GetCommand(name string) (Command, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	cmd, ok := registry[name]
	return cmd, ok
}

// AllCommands returns all registered commands ordered by name.
func AllCommands() []Command {
	registryMu.RLock()
	list := make([]Command, 0, len(registry))
	for _, cmd := range registry {
		list = append(list, cmd)
	}
	registryMu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

func resetRegistry() {
	registryMu.Lock()
	registry = map[string]Command{}
	registryMu.Unlock()
}
