package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvoronin/parceltrack/internal/server/models"
)

var pkg = &models.Package{
	ID:             "p1",
	Owner:          "cust-1",
	AssignedAgents: []string{"agent-1", "agent-2"},
}

func TestCanDecrypt(t *testing.T) {
	tests := []struct {
		name  string
		actor models.Actor
		want  bool
	}{
		{"admin", models.Actor{ID: "adm", Role: models.RoleAdmin}, true},
		{"assigned agent", models.Actor{ID: "agent-1", Role: models.RoleAgent}, true},
		{"other assigned agent", models.Actor{ID: "agent-2", Role: models.RoleAgent}, true},
		{"unassigned agent", models.Actor{ID: "agent-9", Role: models.RoleAgent}, false},
		{"owning customer", models.Actor{ID: "cust-1", Role: models.RoleCustomer}, false},
		{"other customer", models.Actor{ID: "cust-2", Role: models.RoleCustomer}, false},
		{"unknown role", models.Actor{ID: "x", Role: models.Role("root")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanDecrypt(tt.actor, pkg))
		})
	}
}

func TestCanUpdateStatus(t *testing.T) {
	assert.True(t, CanUpdateStatus(models.Actor{ID: "adm", Role: models.RoleAdmin}, pkg))
	assert.True(t, CanUpdateStatus(models.Actor{ID: "agent-1", Role: models.RoleAgent}, pkg))
	assert.False(t, CanUpdateStatus(models.Actor{ID: "agent-9", Role: models.RoleAgent}, pkg))
	assert.False(t, CanUpdateStatus(models.Actor{ID: "cust-1", Role: models.RoleCustomer}, pkg))
}

func TestCanCreate(t *testing.T) {
	assert.True(t, CanCreate(models.Actor{ID: "adm", Role: models.RoleAdmin}))
	assert.False(t, CanCreate(models.Actor{ID: "agent-1", Role: models.RoleAgent}))
	assert.False(t, CanCreate(models.Actor{ID: "cust-1", Role: models.RoleCustomer}))
}

func TestCanReadAudit(t *testing.T) {
	assert.True(t, CanReadAudit(models.Actor{ID: "adm", Role: models.RoleAdmin}, pkg))
	assert.True(t, CanReadAudit(models.Actor{ID: "agent-2", Role: models.RoleAgent}, pkg))
	assert.False(t, CanReadAudit(models.Actor{ID: "agent-9", Role: models.RoleAgent}, pkg))
	assert.False(t, CanReadAudit(models.Actor{ID: "cust-1", Role: models.RoleCustomer}, pkg))
}

// An unassigned agent stays denied no matter what permissions other
// agents hold on the same package.
func TestAgentIsolation(t *testing.T) {
	outsider := models.Actor{ID: "agent-9", Role: models.RoleAgent}
	assert.False(t, CanDecrypt(outsider, pkg))
	assert.False(t, CanUpdateStatus(outsider, pkg))
	assert.False(t, CanReadAudit(outsider, pkg))
}
