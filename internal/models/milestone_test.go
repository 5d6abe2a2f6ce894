package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMilestoneExtension_ScanPendingRelease(t *testing.T) {
	original := PendingReleaseExtension(ReleaseDescriptor{
		ContractAddress: "0xabc",
		FunctionName:    "release",
		Arguments:       []string{"esc_1"},
	})

	value, err := original.Value()
	assert.NoError(t, err)

	var restored MilestoneExtension
	assert.NoError(t, restored.Scan(value))
	assert.Equal(t, ExtensionPendingRelease, restored.Kind)
	assert.NotNil(t, restored.PendingRelease)
	assert.Equal(t, "0xabc", restored.PendingRelease.ContractAddress)
	assert.False(t, restored.IsAutoReleased())
}

func TestMilestoneExtension_ScanNil(t *testing.T) {
	var e MilestoneExtension
	assert.NoError(t, e.Scan(nil))
	assert.Equal(t, ExtensionNone, e.Kind)
}

func TestMilestoneExtension_ScanLegacyEmptyObject(t *testing.T) {
	// Строки без kind, записанные до введения вариантов, читаются как none.
	var e MilestoneExtension
	assert.NoError(t, e.Scan([]byte(`{}`)))
	assert.Equal(t, ExtensionNone, e.Kind)
}

func TestMilestoneExtension_AutoReleased(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := AutoReleasedExtension(at, nil)

	assert.True(t, e.IsAutoReleased())
	assert.Nil(t, e.PendingRelease)

	value, err := e.Value()
	assert.NoError(t, err)

	var restored MilestoneExtension
	assert.NoError(t, restored.Scan(value))
	assert.True(t, restored.IsAutoReleased())
	assert.NotNil(t, restored.AutoReleasedAt)
	assert.True(t, restored.AutoReleasedAt.Equal(at))
}

func TestActor_UserAndSystem(t *testing.T) {
	userID := uuid.New()
	user := UserActor(userID)
	system := SystemActor()

	assert.False(t, user.IsSystem())
	assert.True(t, user.Is(userID))
	assert.False(t, user.Is(uuid.New()))

	assert.True(t, system.IsSystem())
	assert.False(t, system.Is(userID))
	assert.False(t, system.Is(uuid.Nil))

	id, ok := user.UserID()
	assert.True(t, ok)
	assert.Equal(t, userID, id)

	_, ok = system.UserID()
	assert.False(t, ok)
}

func TestCanTransitionMilestone(t *testing.T) {
	assert.True(t, CanTransitionMilestone(MilestoneStatusPending, MilestoneStatusInProgress))
	assert.True(t, CanTransitionMilestone(MilestoneStatusInProgress, MilestoneStatusSubmitted))
	assert.True(t, CanTransitionMilestone(MilestoneStatusSubmitted, MilestoneStatusApproved))
	assert.True(t, CanTransitionMilestone(MilestoneStatusInProgress, MilestoneStatusDisputed))
	assert.True(t, CanTransitionMilestone(MilestoneStatusSubmitted, MilestoneStatusDisputed))

	assert.False(t, CanTransitionMilestone(MilestoneStatusPending, MilestoneStatusApproved))
	assert.False(t, CanTransitionMilestone(MilestoneStatusApproved, MilestoneStatusDisputed))
	assert.False(t, CanTransitionMilestone(MilestoneStatusDisputed, MilestoneStatusApproved))
}
