package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	MaxUses *int   `json:"maxUses" validate:"omitempty,min=1"`
	Secret  string `json:"-" validate:"required"`
}

func TestStruct(t *testing.T) {
	zero := 0
	err := Struct(&sample{Email: "not-an-email", MaxUses: &zero, Secret: "x"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "email email")
		assert.Contains(t, err.Error(), "maxUses min=1")
	}

	assert.NoError(t, Struct(sample{Email: "owner@example.com", Secret: "x"}))
}

func TestStructRejectsNonStruct(t *testing.T) {
	assert.EqualError(t, Struct(nil), "is nil")
	assert.EqualError(t, Struct("nope"), "not a struct")
}
