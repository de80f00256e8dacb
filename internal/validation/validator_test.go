package validation_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

type TestRequest struct {
	Title  string `json:"title" validate:"required,max=500"`
	ISBN13 string `json:"isbn13" validate:"omitempty,len=13"`
	Rating int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Color  string `json:"color" validate:"omitempty,hexcolor"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := TestRequest{
		Title:  "The Dispossessed",
		ISBN13: "9780061054884",
		Rating: 5,
		Color:  "#3498db",
	}

	err := v.Validate(req)
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       TestRequest
		wantField string
	}{
		{
			name:      "missing required field",
			req:       TestRequest{Title: ""},
			wantField: "title",
		},
		{
			name:      "isbn13 wrong length",
			req:       TestRequest{Title: "Ok", ISBN13: "12345"},
			wantField: "isbn13",
		},
		{
			name:      "rating out of range",
			req:       TestRequest{Title: "Ok", Rating: 6},
			wantField: "rating",
		},
		{
			name:      "bad color",
			req:       TestRequest{Title: "Ok", Color: "blue-ish"},
			wantField: "color",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			assert.Error(t, err)

			var domainErr *errors.Error
			if assert.True(t, stderrors.As(err, &domainErr)) {
				assert.Equal(t, errors.CodeValidation, domainErr.Code)
				fields, ok := domainErr.Details.(map[string]string)
				if assert.True(t, ok, "details should be a field map") {
					assert.Contains(t, fields, tt.wantField)
				}
			}
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(TestRequest{Title: ""})
	assert.Error(t, err)

	var domainErr *errors.Error
	if assert.True(t, stderrors.As(err, &domainErr)) {
		fields := domainErr.Details.(map[string]string)
		// Should use JSON tag name "title", not struct field name "Title"
		assert.Contains(t, fields, "title")
		assert.NotContains(t, fields, "Title")
	}
}
