package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/shared/errors"
)

type validationItem struct {
	Name  string `yaml:"name" validate:"required"`
	Limit int64  `yaml:"call_limit" validate:"gte=0"`
}

type validationDoc struct {
	Items []validationItem `yaml:"items" validate:"dive"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(validationDoc{Items: []validationItem{{Name: "a"}}}))

	err := ValidateStruct(validationDoc{Items: []validationItem{{Name: "a"}, {Limit: -1}}})
	require.Error(t, err)

	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
	assert.Contains(t, appErr.Details, "items[1].name is required")
	assert.Contains(t, appErr.Details, "items[1].call_limit must be greater than or equal to 0")
}
