package account

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/activity-timeline/internal/model"
)

func TestNameFallsBackToSignedInUser(t *testing.T) {
	a := New("")
	assert.Equal(t, "", a.Name())

	a.Update(model.User{DisplayName: "Dana Scully", Email: "dana@fabrikam.com"})
	assert.Equal(t, "dana@fabrikam.com", a.Name())
	assert.Equal(t, "Dana Scully", a.User().DisplayName)
}

func TestOverrideWins(t *testing.T) {
	a := New("boss@fabrikam.com")
	a.Update(model.User{Email: "dana@fabrikam.com"})

	assert.Equal(t, "boss@fabrikam.com", a.Name())

	// Clearing the override reverts to the signed-in user.
	a.SetOverride("")
	assert.Equal(t, "dana@fabrikam.com", a.Name())

	a.SetOverride("other@fabrikam.com")
	assert.Equal(t, "other@fabrikam.com", a.Name())
}
