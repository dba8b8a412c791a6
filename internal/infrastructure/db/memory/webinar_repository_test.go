package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/webinar-system/internal/core/domain"
)

func sampleWebinar(id string, seats int) *domain.Webinar {
	return domain.NewWebinar(domain.WebinarProps{
		ID:          id,
		OrganizerID: "organizer-id",
		Title:       "Webinar title",
		StartDate:   time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2022, 1, 1, 1, 0, 0, 0, time.UTC),
		Seats:       seats,
	})
}

func TestWebinarRepository_CreateAndFind(t *testing.T) {
	repo := NewWebinarRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleWebinar("w1", 100)))

	found, err := repo.FindByID(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, sampleWebinar("w1", 100).Props(), found.Props())
}

func TestWebinarRepository_CreateDuplicate(t *testing.T) {
	repo := NewWebinarRepository(sampleWebinar("w1", 100))

	err := repo.Create(context.Background(), sampleWebinar("w1", 5))
	assert.ErrorIs(t, err, domain.ErrWebinarExists)
	assert.Equal(t, 100, repo.All()[0].Seats)
}

func TestWebinarRepository_FindMissingReturnsNil(t *testing.T) {
	repo := NewWebinarRepository()

	found, err := repo.FindByID(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestWebinarRepository_Update(t *testing.T) {
	repo := NewWebinarRepository(sampleWebinar("w2", 10))
	ctx := context.Background()

	w, err := repo.FindByID(ctx, "w2")
	require.NoError(t, err)
	seats := 50
	w.Update(domain.WebinarUpdate{Seats: &seats})
	require.NoError(t, repo.Update(ctx, w))

	again, err := repo.FindByID(ctx, "w2")
	require.NoError(t, err)
	assert.Equal(t, 50, again.Seats())
}

func TestWebinarRepository_UpdateUnknown(t *testing.T) {
	repo := NewWebinarRepository()

	err := repo.Update(context.Background(), sampleWebinar("ghost", 10))
	assert.ErrorIs(t, err, domain.ErrWebinarNotFound)
}

func TestWebinarRepository_ReturnedEntityIsDetached(t *testing.T) {
	repo := NewWebinarRepository(sampleWebinar("w3", 10))
	ctx := context.Background()

	w, _ := repo.FindByID(ctx, "w3")
	seats := 999
	w.Update(domain.WebinarUpdate{Seats: &seats})

	stored, _ := repo.FindByID(ctx, "w3")
	assert.Equal(t, 10, stored.Seats(), "mutating a loaded entity must not touch the store until Update")
}

func TestWebinarRepository_AllKeepsInsertionOrder(t *testing.T) {
	repo := NewWebinarRepository(sampleWebinar("b", 1))
	require.NoError(t, repo.Create(context.Background(), sampleWebinar("a", 1)))

	all := repo.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
}
