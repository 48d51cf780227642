package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/model"
)

func newProfileService(t *testing.T) (*ProfileService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewProfileService(env.profiles, logger), env
}

func TestRegisterDriver(t *testing.T) {
	svc, env := newProfileService(t)
	user := env.addUser(t, "alice", model.RolePassenger, 0)
	ctx := context.Background()

	profile, err := svc.RegisterDriver(ctx, user, DriverInput{
		Vehicle:  "minivan",
		Plate:    "AB-1234",
		Capacity: 6,
	})
	if err != nil {
		t.Fatalf("RegisterDriver() error = %v", err)
	}
	if profile.Role != model.RoleDriver {
		t.Errorf("Role = %q, want %q", profile.Role, model.RoleDriver)
	}
	if profile.Capacity != 6 {
		t.Errorf("Capacity = %d, want 6", profile.Capacity)
	}
}

func TestRegisterDriver_Validation(t *testing.T) {
	svc, env := newProfileService(t)
	user := env.addUser(t, "alice", model.RolePassenger, 0)

	tests := []struct {
		name string
		in   DriverInput
	}{
		{"missing vehicle", DriverInput{Capacity: 4}},
		{"zero capacity", DriverInput{Vehicle: "sedan"}},
		{"negative capacity", DriverInput{Vehicle: "sedan", Capacity: -1}},
		{"absurd capacity", DriverInput{Vehicle: "bus", Capacity: 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterDriver(context.Background(), user, tt.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("RegisterDriver() error = %v, want validation error", err)
			}
		})
	}
}

func TestBecomePassenger_KeepsVehicleOnFile(t *testing.T) {
	svc, env := newProfileService(t)
	user := env.addUser(t, "dana", model.RoleDriver, 4)

	profile, err := svc.BecomePassenger(context.Background(), user)
	if err != nil {
		t.Fatalf("BecomePassenger() error = %v", err)
	}
	if profile.Role != model.RolePassenger {
		t.Errorf("Role = %q, want %q", profile.Role, model.RolePassenger)
	}
	if profile.Capacity != 4 {
		t.Errorf("Capacity = %d, want 4 kept on file", profile.Capacity)
	}
}

func TestUpdateContact(t *testing.T) {
	svc, env := newProfileService(t)
	user := env.addUser(t, "alice", model.RolePassenger, 0)

	profile, err := svc.UpdateContact(context.Background(), user, "  555-0100 ", "wheelchair space")
	if err != nil {
		t.Fatalf("UpdateContact() error = %v", err)
	}
	if profile.Contact != "555-0100" {
		t.Errorf("Contact = %q, want trimmed %q", profile.Contact, "555-0100")
	}
	if profile.Special != "wheelchair space" {
		t.Errorf("Special = %q", profile.Special)
	}
}
