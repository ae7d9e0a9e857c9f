package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvoronin/parceltrack/internal/common"
)

func validPackage() *Package {
	return &Package{
		Owner:            "customer-1",
		AssignedAgents:   []string{"agent-1"},
		EncryptedPayload: []byte{0x01},
	}
}

func TestPackage_Validate(t *testing.T) {
	assert.NoError(t, validPackage().Validate())

	p := validPackage()
	p.Owner = ""
	assert.ErrorIs(t, p.Validate(), common.ErrValidation)

	p = validPackage()
	p.AssignedAgents = nil
	assert.ErrorIs(t, p.Validate(), common.ErrValidation)

	p = validPackage()
	p.AssignedAgents = []string{"agent-1", ""}
	assert.ErrorIs(t, p.Validate(), common.ErrValidation)

	p = validPackage()
	p.EncryptedPayload = nil
	assert.ErrorIs(t, p.Validate(), common.ErrValidation)
}

func TestPackage_IsAssigned(t *testing.T) {
	p := &Package{AssignedAgents: []string{"a1", "a2"}}
	assert.True(t, p.IsAssigned("a1"))
	assert.True(t, p.IsAssigned("a2"))
	assert.False(t, p.IsAssigned("a3"))
	assert.False(t, (&Package{}).IsAssigned("a1"))
}
