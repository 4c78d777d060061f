package validation

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ceramics-booking/errors"
)

type signup struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2"`
	Seats int    `json:"seats" validate:"gte=1,lte=10"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	tests := []struct {
		input   signup
		message string
	}{
		{signup{Name: "Ana", Seats: 1}, "email is required"},
		{signup{Email: "nope", Name: "Ana", Seats: 1}, "email must be a valid email address"},
		{signup{Email: "ana@example.com", Name: "A", Seats: 1}, "name must have at least 2 characters or items"},
		{signup{Email: "ana@example.com", Name: "Ana", Seats: 11}, "seats must be at most 10"},
	}
	for _, test := range tests {
		err := Struct(test.input)
		assert.Truef(t, stderrors.Is(err, errors.ErrValidation), test.message)
		assert.Equal(t, test.message, errors.MessageOf(err))
	}
	assert.NoError(t, Struct(signup{Email: "ana@example.com", Name: "Ana", Seats: 3}))
}

func TestVar(t *testing.T) {
	err := Var("date", "2025/08/10", "datetime=2006-01-02")
	assert.Equal(t, "date must match the format 2006-01-02", errors.MessageOf(err))
	assert.NoError(t, Var("date", "2025-08-10", "datetime=2006-01-02"))
}
