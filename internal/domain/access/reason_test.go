package access

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenyErrorIs(t *testing.T) {
	err := fmt.Errorf("check failed: %w", Deny(ReasonQuotaExceeded, "usr_1", "/compute"))

	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.NotErrorIs(t, err, ErrPermissionDenied)
}

func TestReasonOf(t *testing.T) {
	reason, ok := ReasonOf(Deny(ReasonNoPlan, "usr_1", "/compute"))
	require.True(t, ok)
	assert.Equal(t, ReasonNoPlan, reason)

	_, ok = ReasonOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestEveryReasonHasMessage(t *testing.T) {
	for _, r := range Reasons {
		assert.NotEqual(t, string(r), r.Message(), r)
	}
	assert.Equal(t, "mystery", DenyReason("mystery").Message())
}

func TestDenyErrorMessage(t *testing.T) {
	err := Deny(ReasonPermissionDenied, "usr_1", "/storage")
	assert.Equal(t, "access denied for user usr_1 on /storage: permission denied", err.Error())
}

func TestParseQuotaScope(t *testing.T) {
	tests := []struct {
		in      string
		want    QuotaScope
		wantErr bool
	}{
		{in: "", want: QuotaPerEndpoint},
		{in: "per_endpoint", want: QuotaPerEndpoint},
		{in: "per_plan", want: QuotaPerPlan},
		{in: "global", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuotaScope(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
