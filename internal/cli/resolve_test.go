package cli

import (
	"testing"

	"github.com/alexanderramin/implanta/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRef(t *testing.T) {
	candidates := []named{
		{id: "a1b2c3d4-0000", name: "ACME"},
		{id: "a1b2ffff-0000", name: "Globex"},
		{id: "c0ffee00-0000", name: "Initech"},
		{id: "d00d0000-0000", name: "initech"},
	}

	tests := []struct {
		name, input, want, errContains string
	}{
		{name: "exact id", input: "c0ffee00-0000", want: "c0ffee00-0000"},
		{name: "name ignores case", input: "globex", want: "a1b2ffff-0000"},
		{name: "unique prefix", input: "a1b2c", want: "a1b2c3d4-0000"},
		{name: "ambiguous prefix", input: "a1b2", errContains: "ambiguous"},
		{name: "ambiguous name", input: "INITECH", errContains: "ambiguous"},
		{name: "blank", input: "  ", errContains: "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveRef("implementation", tt.input, candidates)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRef_NotFound(t *testing.T) {
	_, err := resolveRef("template", "zzz", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParseOptionalDate(t *testing.T) {
	d, err := parseOptionalDate("start", "")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = parseOptionalDate("start", " 2025-03-01 ")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", d.Format(dateLayout))

	_, err = parseOptionalDate("start", "2025-13-01")
	assert.Error(t, err)
}
