package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmac/httpchat/internal/domain"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name     string
		identity string
		wantErr  error
	}{
		{name: "valid", identity: "alice"},
		{name: "max length", identity: strings.Repeat("a", domain.MaxIdentityLen)},
		{name: "empty", identity: "", wantErr: domain.ErrIdentityEmpty},
		{name: "too long", identity: strings.Repeat("a", domain.MaxIdentityLen+1), wantErr: domain.ErrIdentityTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := domain.NewUser(tt.identity)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.identity, u.Identity)
		})
	}
}
