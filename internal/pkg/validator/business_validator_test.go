package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotRequest struct {
	SlotID    string `json:"slot_id" validate:"required,slot_id"`
	Archetype string `json:"archetype" validate:"required,code"`
	Order     int    `json:"order" validate:"display_order"`
}

func TestBusinessValidator_Validate(t *testing.T) {
	v := NewBusinessValidator()

	tests := []struct {
		name    string
		req     slotRequest
		wantErr bool
		wantTag string
	}{
		{
			name: "合法请求",
			req:  slotRequest{SlotID: "heavy_arm_1", Archetype: "heavy", Order: 3},
		},
		{
			name:    "槽位ID为空",
			req:     slotRequest{Archetype: "heavy"},
			wantErr: true,
			wantTag: "required",
		},
		{
			name:    "槽位ID包含大写",
			req:     slotRequest{SlotID: "Heavy_Arm", Archetype: "heavy"},
			wantErr: true,
			wantTag: "slot_id",
		},
		{
			name:    "类型代码包含空格",
			req:     slotRequest{SlotID: "heavy_arm_1", Archetype: "he avy"},
			wantErr: true,
			wantTag: "code",
		},
		{
			name:    "显示顺序越界",
			req:     slotRequest{SlotID: "heavy_arm_1", Archetype: "heavy", Order: 10000},
			wantErr: true,
			wantTag: "display_order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errs := TranslateValidationErrors(err)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantTag, errs[0].Tag)
			assert.NotEmpty(t, errs[0].Message)
		})
	}
}

func TestTranslateValidationError_UsesJSONFieldNames(t *testing.T) {
	err := Default().Validate(slotRequest{Archetype: "light"})
	require.Error(t, err)

	assert.Equal(t, "slot_id is required", TranslateValidationError(err))
	assert.Equal(t, []string{"slot_id is required"}, Messages(err))
}

func TestTranslateValidationErrors_NonValidatorError(t *testing.T) {
	errs := TranslateValidationErrors(errors.New("boom"))

	require.Len(t, errs, 1)
	assert.Equal(t, "request", errs[0].Field)
	assert.Equal(t, "boom", errs[0].Message)
	assert.Nil(t, TranslateValidationErrors(nil))
}
