package logger

import (
	"context"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Init is idempotent; a second call must not invalidate the global.
	if err := Init(); err != nil {
		t.Fatalf("failed to re-initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after re-initialization")
	}
}

func TestLoggerFields(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	ctx := context.Background()
	log := Get()
	log.Info(ctx, "case assigned",
		String("case_id", "RES-1042"),
		Int("analyst_id", 7),
		Int("category", 62),
	)
	log.Warn(ctx, "sync cycle slow", Float64("duration_ms", 812.5))
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	dispatch := Named("dispatch")
	if dispatch == nil {
		t.Fatal("named logger is nil")
	}
	dispatch.Info(context.Background(), "pass finished", Int("assigned", 3))
}

func TestLoggerSetLevel(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("failed to set level %q: %v", lvl, err)
		}
	}
	if err := SetLevelString("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := SetLevelString("info"); err != nil {
		t.Errorf("failed to restore level: %v", err)
	}
}
