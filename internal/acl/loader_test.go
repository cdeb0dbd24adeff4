package acl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/oba-aci/internal/dn"
)

const bootstrapYAML = `
backends:
  - baseDN: dc=example,dc=com
    entries:
      - dn: dc=example,dc=com
        aci:
          - '(targetattr="*")(version 3.0; acl "anyone read"; allow (read,search,compare) userdn="ldap:///anyone";)'
        attributes:
          objectClass: [top, domain]
      - dn: uid=alice,ou=people,dc=example,dc=com
        attributes:
          objectClass: [person]
          mail: ["${ALICE_MAIL:-alice@example.com}"]
  - baseDN: o=apps
    entries:
      - dn: cn=app,o=apps
        aci:
          - '(version 3.0; acl "app"; allow (all) userdn="ldap:///self";)'
`

func createTempBootstrapFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "acis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseBootstrap(t *testing.T) {
	t.Run("backends and entries", func(t *testing.T) {
		backends, err := ParseBootstrap([]byte(bootstrapYAML))
		require.NoError(t, err)
		require.Len(t, backends, 2)

		assert.True(t, backends[0].BaseDN.Equal(dn.MustParse(baseDN)))
		require.Len(t, backends[0].Entries, 2)
		base := backends[0].Entries[0]
		assert.Len(t, base.GetStrings(AttrACI), 1)
		assert.Equal(t, []string{"top", "domain"}, base.GetStrings("objectClass"))

		alice := backends[0].Entries[1]
		assert.Equal(t, []string{"alice@example.com"}, alice.GetStrings("mail"))
		assert.False(t, alice.HasAttribute(AttrACI))

		assert.True(t, backends[1].BaseDN.Equal(dn.MustParse("o=apps")))
	})

	t.Run("environment expansion", func(t *testing.T) {
		t.Setenv("ALICE_MAIL", "a@corp.example")
		backends, err := ParseBootstrap([]byte(bootstrapYAML))
		require.NoError(t, err)
		assert.Equal(t, []string{"a@corp.example"}, backends[0].Entries[1].GetStrings("mail"))
	})

	t.Run("empty document", func(t *testing.T) {
		backends, err := ParseBootstrap(nil)
		require.NoError(t, err)
		assert.Empty(t, backends)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseBootstrap([]byte("backends:\n  - baseDN: dc=example,dc=com\n    entires: []\n"))
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseBootstrap([]byte("backends: [\n"))
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})

	t.Run("entry outside its backend", func(t *testing.T) {
		_, err := ParseBootstrap([]byte("backends:\n  - baseDN: dc=example,dc=com\n    entries:\n      - dn: o=apps\n"))
		assert.ErrorIs(t, err, ErrInvalidBootstrap)
	})

	t.Run("invalid dn", func(t *testing.T) {
		_, err := ParseBootstrap([]byte("backends:\n  - baseDN: not a dn\n"))
		assert.ErrorIs(t, err, ErrInvalidBootstrap)
	})
}

func TestLoadBootstrapFile(t *testing.T) {
	t.Run("reads file", func(t *testing.T) {
		backends, err := LoadBootstrapFile(createTempBootstrapFile(t, bootstrapYAML))
		require.NoError(t, err)
		assert.Len(t, backends, 2)
	})

	t.Run("no path", func(t *testing.T) {
		_, err := LoadBootstrapFile("")
		assert.ErrorIs(t, err, ErrNoFilePath)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadBootstrapFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.True(t, errors.Is(err, ErrFileNotFound))
	})
}
