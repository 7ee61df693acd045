package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terraed/terra-api/internal/models"
)

func TestSeedDemoDisabled(t *testing.T) {
	users := &stubUserRepo{users: map[uint]models.User{}}
	quests := &stubQuestRepo{quests: map[uint]models.Quest{}}
	svc := NewSeedService(users, quests, false, testLogger())

	_, _, err := svc.SeedDemo(context.Background())
	require.ErrorIs(t, err, ErrSeedDisabled)
	require.Empty(t, users.users)
}

func TestSeedDemoCreatesDemoData(t *testing.T) {
	users := &stubUserRepo{users: map[uint]models.User{}}
	quests := &stubQuestRepo{quests: map[uint]models.Quest{}}
	svc := NewSeedService(users, quests, true, testLogger())

	seededUsers, seededQuests, err := svc.SeedDemo(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, seededUsers)
	require.Equal(t, 3, seededQuests)

	teachers := 0
	for _, user := range users.users {
		if user.IsTeacher() {
			teachers++
		}
		require.True(t, user.ConsentGiven)
	}
	require.Equal(t, 1, teachers)

	geofenced := 0
	for _, quest := range quests.quests {
		require.False(t, quest.IsExpired(fixedNow()))
		if quest.HasGeofence() {
			geofenced++
		}
	}
	require.Equal(t, 1, geofenced)
}
