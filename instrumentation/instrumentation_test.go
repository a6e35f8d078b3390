package instrumentation

import (
	"context"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "default config",
			config: Config{
				Enabled: false,
			},
			wantErr: false,
		},
		{
			name: "with service name and version",
			config: Config{
				Enabled:        true,
				ServiceName:    "parlor-desktop",
				ServiceVersion: "1.0.0",
			},
			wantErr: false,
		},
		{
			name: "empty service name gets default",
			config: Config{
				Enabled:        true,
				ServiceName:    "",
				ServiceVersion: "",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if err == nil {
				if inst == nil {
					t.Error("New() returned nil instrumentation")
					return
				}

				// Verify meters and tracers can be created for different scopes
				if inst.Meter("api") == nil {
					t.Error("Meter('api') returned nil")
				}
				if inst.Meter("state") == nil {
					t.Error("Meter('state') returned nil")
				}
				if inst.Tracer("api") == nil {
					t.Error("Tracer('api') returned nil")
				}
				if inst.Tracer("state") == nil {
					t.Error("Tracer('state') returned nil")
				}

				if inst.Metrics() == nil {
					t.Error("Metrics() returned nil")
				}
				if inst.TracerProvider() == nil {
					t.Error("TracerProvider() returned nil")
				}
				if inst.MeterProvider() == nil {
					t.Error("MeterProvider() returned nil")
				}

				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := inst.Shutdown(ctx); err != nil {
					t.Errorf("Shutdown() error = %v", err)
				}
				// Shutdown is idempotent
				if err := inst.Shutdown(ctx); err != nil {
					t.Errorf("Second Shutdown() error = %v", err)
				}
			}
		})
	}
}

func TestInstrumentation_NoOpProviders(t *testing.T) {
	inst, err := New(Config{
		Enabled: false,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()

	// Recording against no-op providers must not panic
	inst.Metrics().RecordAPIRequest(ctx, "GET", "/api/servers/s1", 200, 12.3)
	inst.Metrics().RecordStateOperation(ctx, "set_members", 0.4)
	inst.Metrics().MessagesSent.Add(ctx, 1)
	inst.Metrics().ReactionsToggled.Add(ctx, 1)
	inst.Metrics().CacheWritesTotal.Add(ctx, 1)
	inst.Metrics().SlowModeThrottled.Add(ctx, 1)
}

func TestInstrumentation_RegisterStateSizeCallbacks(t *testing.T) {
	inst, err := New(Config{Enabled: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = inst.Shutdown(context.Background()) }()

	err = inst.RegisterStateSizeCallbacks(
		func() int64 { return 10 },
		func() int64 { return 5 },
		func() int64 { return 200 },
		func() int64 { return 3 },
	)
	if err != nil {
		t.Errorf("RegisterStateSizeCallbacks() error = %v", err)
	}

	// Nil callbacks are allowed and skipped.
	if err := inst.RegisterStateSizeCallbacks(nil, nil, nil, nil); err != nil {
		t.Errorf("RegisterStateSizeCallbacks(nil...) error = %v", err)
	}
}
