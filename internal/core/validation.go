package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultRole is assigned to agents created without a role.
const DefaultRole = "L1 Analyst"

// AgentInput is the request to add an agent to a team.
type AgentInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Role   string `json:"role" validate:"max=64"`
	Avatar string `json:"avatar" validate:"max=4"`
}

func (in AgentInput) normalize() AgentInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.TrimSpace(in.Role)
	in.Avatar = strings.TrimSpace(in.Avatar)
	if in.Role == "" {
		in.Role = DefaultRole
	}
	if in.Avatar == "" {
		in.Avatar = avatarFor(in.Name)
	}
	return in
}

// avatarFor is the upper-cased first two characters of a name.
func avatarFor(name string) string {
	end := 0
	for i := 0; i < 2 && end < len(name); i++ {
		_, size := utf8.DecodeRuneInString(name[end:])
		end += size
	}
	return strings.ToUpper(name[:end])
}

// StatsInput is a full replacement of an agent's stat record. Omitted
// fields are cleared.
type StatsInput struct {
	IncidentsResolved *int64   `json:"incidentsResolved" validate:"omitempty,min=0"`
	SLABreach         *int64   `json:"slaBreach" validate:"omitempty,min=0"`
	CallsAnswered     *int64   `json:"callsAnswered" validate:"omitempty,min=0"`
	AHT               *int64   `json:"aht" validate:"omitempty,min=0"`
	AvgHold           *int64   `json:"avgHold" validate:"omitempty,min=0"`
	Transfers         *int64   `json:"transfers" validate:"omitempty,min=0"`
	CSAT              *float64 `json:"csat" validate:"omitempty,min=0,max=5"`
}

// Fields converts the input to a StatFields set.
func (in StatsInput) Fields() StatFields {
	return StatFields{
		IncidentsResolved: in.IncidentsResolved,
		SLABreach:         in.SLABreach,
		CallsAnswered:     in.CallsAnswered,
		AHT:               in.AHT,
		AvgHold:           in.AvgHold,
		Transfers:         in.Transfers,
		CSAT:              in.CSAT,
	}
}

// validateStruct runs struct tag validation and wraps failures in ErrValidation.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}
