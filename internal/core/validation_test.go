package core

import (
	"errors"
	"strings"
	"testing"
)

func TestAgentInput_Normalize(t *testing.T) {
	tests := []struct {
		in         AgentInput
		wantRole   string
		wantAvatar string
	}{
		{AgentInput{Name: "  jane doe "}, DefaultRole, "JA"},
		{AgentInput{Name: "Ésa", Role: "Team Lead"}, "Team Lead", "ÉS"},
		{AgentInput{Name: "Q"}, DefaultRole, "Q"},
		{AgentInput{Name: "Bob", Avatar: "BB"}, DefaultRole, "BB"},
	}
	for _, tt := range tests {
		got := tt.in.normalize()
		if got.Role != tt.wantRole || got.Avatar != tt.wantAvatar {
			t.Errorf("normalize(%+v) = role %q avatar %q, want %q %q",
				tt.in, got.Role, got.Avatar, tt.wantRole, tt.wantAvatar)
		}
	}
}

func TestValidateStruct(t *testing.T) {
	if err := validateStruct(AgentInput{Name: "Alice", Role: DefaultRole}); err != nil {
		t.Errorf("valid agent error = %v", err)
	}

	err := validateStruct(AgentInput{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("empty agent error = %v, want ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "Name") {
		t.Errorf("error should name the field: %v", err)
	}

	neg := int64(-1)
	if err := validateStruct(StatsInput{Transfers: &neg}); !errors.Is(err, ErrValidation) {
		t.Errorf("negative transfers error = %v, want ErrValidation", err)
	}
	high := 5.5
	if err := validateStruct(StatsInput{CSAT: &high}); !errors.Is(err, ErrValidation) {
		t.Errorf("csat above 5 error = %v, want ErrValidation", err)
	}
	zero := int64(0)
	if err := validateStruct(StatsInput{AHT: &zero}); err != nil {
		t.Errorf("zero aht error = %v, want nil", err)
	}
}
