package registryfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/shared/errors"
)

const sampleDocument = `
permissions:
  - name: compute
    endpoint: /compute
    description: "<b>Run</b> compute jobs<script>alert(1)</script>"
  - name: storage
    endpoint: /storage
plans:
  - name: basic
    permissions: [compute]
    call_limit: 100
  - name: legacy
    permissions: [storage]
    call_limit: 5
    active: false
users:
  - username: alice
    plan: basic
    duration_days: 30
  - username: root
    is_admin: true
`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	cmd := doc.Command("ops")
	assert.Equal(t, "ops", cmd.AppliedBy)
	require.Len(t, cmd.Permissions, 2)
	assert.Equal(t, "Run compute jobs", cmd.Permissions[0].Description)

	require.Len(t, cmd.Plans, 2)
	assert.False(t, cmd.Plans[0].Inactive)
	assert.True(t, cmd.Plans[1].Inactive)
	assert.Equal(t, int64(100), cmd.Plans[0].CallLimit)

	require.Len(t, cmd.Users, 2)
	assert.Equal(t, "basic", cmd.Users[0].Plan)
	assert.True(t, cmd.Users[1].IsAdmin)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "plans:\n  - name: basic\n    limit: 5\n"},
		{"negative limit", "plans:\n  - name: basic\n    call_limit: -1\n"},
		{"missing endpoint", "permissions:\n  - name: compute\n"},
		{"missing username", "users:\n  - plan: basic\n"},
		{"not yaml", "permissions: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	doc, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, doc.Command("ops").Plans)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o600))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, doc.Plans, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
