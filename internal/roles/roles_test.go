package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, s := range []string{"admin", "subAdmin", "user"} {
		role, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, Role(s), role)
	}

	_, err := Parse("superuser")
	assert.Error(t, err)
}

func TestCan(t *testing.T) {
	assert.True(t, Admin.Can(ManageSubAdmins))
	assert.True(t, Admin.Can(PurgeUsers))
	assert.True(t, SubAdmin.Can(ModerateItems))

	assert.False(t, SubAdmin.Can(ManageSubAdmins))
	assert.False(t, SubAdmin.Can(PurgeUsers))
	assert.False(t, User.Can(ViewAllOffers))
	assert.False(t, Role("bogus").Can(ManageUsers))
}
