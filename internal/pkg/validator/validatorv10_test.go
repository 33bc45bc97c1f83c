package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityInput struct {
	Identity string `validate:"required,identity"`
	OneCode  string `validate:"omitempty,numeric"`
}

func TestV10Validator_Identity(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      identityInput
		wantErr map[string]string
	}{
		{name: "email", in: identityInput{Identity: "a@example.com"}},
		{name: "phone", in: identityInput{Identity: "+6281234567890"}},
		{
			name:    "missing",
			in:      identityInput{},
			wantErr: map[string]string{"identity": "Identity is a required field"},
		},
		{
			name:    "neither email nor phone",
			in:      identityInput{Identity: "not-an-identity"},
			wantErr: map[string]string{"identity": "Identity must be a valid email address or E.164 phone number"},
		},
		{
			name:    "phone without plus",
			in:      identityInput{Identity: "081234567890"},
			wantErr: map[string]string{"identity": "Identity must be a valid email address or E.164 phone number"},
		},
		{
			name:    "snake case field key",
			in:      identityInput{Identity: "a@example.com", OneCode: "12a"},
			wantErr: map[string]string{"one_code": "OneCode must be a valid numeric value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Values())
			assert.NotEmpty(t, verr.Error())
		})
	}
}

func TestV10Validator_NotStruct(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	err = v.Validate("plain string")
	require.Error(t, err)

	var verr V10ValidationError
	assert.NotErrorAs(t, err, &verr)
}

func TestV10ValidationError_Empty(t *testing.T) {
	assert.Equal(t, "validation error", V10ValidationError{}.Error())
}
