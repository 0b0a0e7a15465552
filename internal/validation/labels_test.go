package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "agroprices/internal/errors"
	"agroprices/pkg/contracts/domain"
)

func TestLabelsValidator(t *testing.T) {
	tests := []struct {
		name       string
		labels     domain.Labels
		wantFields []string
	}{
		{
			name:   "complete labels",
			labels: domain.Labels{Year: 2024, Region: "Lima", Product: "Papa", Subtype: "Blanca"},
		},
		{
			name:   "subtype is optional",
			labels: domain.Labels{Year: 2024, Region: "Lima", Product: "Papa"},
		},
		{
			name:       "missing year",
			labels:     domain.Labels{Region: "Lima", Product: "Papa"},
			wantFields: []string{"year"},
		},
		{
			name:       "year out of range",
			labels:     domain.Labels{Year: 24, Region: "Lima", Product: "Papa"},
			wantFields: []string{"year"},
		},
		{
			name:       "missing region and product",
			labels:     domain.Labels{Year: 2024},
			wantFields: []string{"region", "product"},
		},
	}

	v := NewLabelsValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.labels)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantFields, appErr.Context["fields"])
		})
	}
}

func TestLabelsValidatorMessages(t *testing.T) {
	err := NewLabelsValidator().Validate(domain.Labels{Year: 3000, Product: "Papa"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year must be less than or equal to 2100")
	assert.Contains(t, err.Error(), "region is required")
}
