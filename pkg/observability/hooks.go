// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events from the landmark renderer and the args builder.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Libraries prefer hooks passed explicitly through their options and fall back
// to the registered ones.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	hooks.OnBucketStart(ctx, hfov, vfov, width, height, len(jobs))
//	// ... render the bucket ...
//	hooks.OnBucketComplete(ctx, hfov, vfov, rendered, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the landmark renderer.
type RenderHooks interface {
	// Bucket events: one engine session per field-of-view bucket.
	OnBucketStart(ctx context.Context, hfov, vfov float64, width, height, jobs int)
	OnBucketComplete(ctx context.Context, hfov, vfov float64, rendered int, duration time.Duration, err error)

	// OnFrameWritten records one landmark image written to path.
	OnFrameWritten(ctx context.Context, path string, duration time.Duration)
}

// =============================================================================
// Build Hooks
// =============================================================================

// BuildHooks receives events from the visualization args builder.
type BuildHooks interface {
	// OnInstructionFound records the matched record and the number of lines scanned.
	OnInstructionFound(ctx context.Context, split string, instructionID int64, scanned int)

	// OnBuildComplete records the end of a build; frames is the pose-trace length.
	OnBuildComplete(ctx context.Context, instructionID int64, frames int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnBucketStart(context.Context, float64, float64, int, int, int) {}
func (NoopRenderHooks) OnBucketComplete(context.Context, float64, float64, int, time.Duration, error) {
}
func (NoopRenderHooks) OnFrameWritten(context.Context, string, time.Duration) {}

// NoopBuildHooks is a no-op implementation of BuildHooks.
type NoopBuildHooks struct{}

func (NoopBuildHooks) OnInstructionFound(context.Context, string, int64, int)                {}
func (NoopBuildHooks) OnBuildComplete(context.Context, int64, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks RenderHooks = NoopRenderHooks{}
	buildHooks  BuildHooks  = NoopBuildHooks{}
	hooksMu     sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any rendering.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetBuildHooks registers custom build hooks.
// This should be called once at application startup before any build.
func SetBuildHooks(h BuildHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		buildHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Build returns the registered build hooks.
func Build() BuildHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return buildHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	buildHooks = NoopBuildHooks{}
}
