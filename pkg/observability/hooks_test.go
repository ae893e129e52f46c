package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopRenderHooks{}
	r.OnBucketStart(ctx, 1.2, 0.9, 300, 210, 12)
	r.OnBucketComplete(ctx, 1.2, 0.9, 12, time.Second, nil)
	r.OnFrameWritten(ctx, "landmarks/val_seen/en-US/42/0-door.png", time.Millisecond)

	b := NoopBuildHooks{}
	b.OnInstructionFound(ctx, "rxr_val_seen", 42, 3)
	b.OnBuildComplete(ctx, 42, 120, time.Second, errors.New("boom"))
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Render() should return NoopRenderHooks by default")
	}
	if _, ok := Build().(NoopBuildHooks); !ok {
		t.Error("Build() should return NoopBuildHooks by default")
	}

	customRender := &testRenderHooks{}
	SetRenderHooks(customRender)
	if Render() != customRender {
		t.Error("SetRenderHooks should set custom hooks")
	}

	customBuild := &testBuildHooks{}
	SetBuildHooks(customBuild)
	if Build() != customBuild {
		t.Error("SetBuildHooks should set custom hooks")
	}

	// nil must not replace registered hooks
	SetRenderHooks(nil)
	SetBuildHooks(nil)
	if Render() != customRender || Build() != customBuild {
		t.Error("nil hooks should be ignored")
	}

	Reset()
	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Reset should restore NoopRenderHooks")
	}
	if _, ok := Build().(NoopBuildHooks); !ok {
		t.Error("Reset should restore NoopBuildHooks")
	}
}

type testRenderHooks struct{ NoopRenderHooks }

type testBuildHooks struct{ NoopBuildHooks }
