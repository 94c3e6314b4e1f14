package clog

import (
	"context"
	"sync"
)

type ctxSlog struct {
	mu         sync.RWMutex
	attributes map[string]any
}

type ctxSlogKey struct{}

func ContextWithSlog(ctx context.Context) context.Context {
	ctxSlog := &ctxSlog{
		attributes: make(map[string]any),
	}
	return context.WithValue(ctx, ctxSlogKey{}, ctxSlog)
}

func AddAttribute(ctx context.Context, key string, value any) {
	l, ok := ctx.Value(ctxSlogKey{}).(*ctxSlog)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attributes[key] = value
}

func GetAttribute[T any](ctx context.Context, key string) T {
	l, ok := ctx.Value(ctxSlogKey{}).(*ctxSlog)
	if !ok {
		return *new(T)
	}
	l.mu.RLock()
	iVal, ok := l.attributes[key]
	l.mu.RUnlock()
	if !ok {
		return *new(T)
	}
	v, ok := iVal.(T)
	if !ok {
		return *new(T)
	}
	return v
}

const (
	RunIDAttributeKey   = "run_id"
	AgentIDAttributeKey = "agent_id"
	ErrorAttributeKey   = "error"
)

func AddRunID(ctx context.Context, runID string) {
	AddAttribute(ctx, RunIDAttributeKey, runID)
}

// RunID returns the invocation ID stored by AddRunID, or "".
func RunID(ctx context.Context) string {
	return GetAttribute[string](ctx, RunIDAttributeKey)
}

func AddAgentID(ctx context.Context, agentID string) {
	AddAttribute(ctx, AgentIDAttributeKey, agentID)
}

func GetAttributes(ctx context.Context) map[string]any {
	l, ok := ctx.Value(ctxSlogKey{}).(*ctxSlog)
	if !ok {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	copied := make(map[string]any, len(l.attributes))
	for k, v := range l.attributes {
		copied[k] = v
	}
	return copied
}
