package core

import "context"

// PreHook runs before the reasoning step. It receives the outgoing user
// message and returns the message that is actually reasoned over.
// A PreHook must not fail: on error it returns the message unchanged.
type PreHook func(ctx context.Context, message string) string

// PostHook runs after the agent produced its reply.
type PostHook func(ctx context.Context, exchange Exchange)

// HookRegistrar is implemented by agent pipelines that accept capabilities.
// Capabilities only ever see these two registration points, never the
// pipeline's internals.
type HookRegistrar interface {
	RegisterPreHook(h PreHook)
	RegisterPostHook(h PostHook)
}
