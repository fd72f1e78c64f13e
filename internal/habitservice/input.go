package habitservice

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/habitu/internal/apperr"
	"github.com/starford/habitu/internal/habit"
)

const maxNameLength = 120

// CreateInput holds the caller-supplied fields of a new habit. Zero values
// fall back to binary, goal 1 and daily.
type CreateInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Icon        string           `json:"icon"`
	Color       string           `json:"color"`
	Category    string           `json:"category"`
	Type        habit.Type       `json:"type"`
	Goal        float64          `json:"goal"`
	Unit        string           `json:"unit"`
	Frequency   *habit.Frequency `json:"frequency"`
	Reminders   []string         `json:"reminders"`
}

// Validate validates the create input.
func (in *CreateInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&in.Type, validation.In(habit.TypeBinary, habit.TypeNumeric)),
		validation.Field(&in.Goal, validation.Min(0.0)),
		validation.Field(&in.Frequency),
	)
}

// UpdateInput is a partial edit; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Icon        *string          `json:"icon"`
	Color       *string          `json:"color"`
	Category    *string          `json:"category"`
	Type        *habit.Type      `json:"type"`
	Goal        *float64         `json:"goal"`
	Unit        *string          `json:"unit"`
	Frequency   *habit.Frequency `json:"frequency"`
	Reminders   []string         `json:"reminders"`

	// IfMatch, when set, must equal the habit's current Revision.
	IfMatch string `json:"-"`
}

// Validate validates the update input.
func (in *UpdateInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, maxNameLength)),
		validation.Field(&in.Type, validation.In(habit.TypeBinary, habit.TypeNumeric)),
		validation.Field(&in.Goal, validation.By(positive)),
		validation.Field(&in.Frequency),
	)
}

func positive(v any) error {
	g, _ := v.(*float64)
	if g != nil && *g <= 0 {
		return errors.New("must be greater than 0")
	}
	return nil
}

// asValidation converts an ozzo error into the shared validation error.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			return apperr.NewValidation(field, ferr.Error())
		}
	}
	return apperr.NewValidation("", err.Error())
}
