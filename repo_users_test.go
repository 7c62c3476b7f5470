package devconnect

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var testDBSeq int

func testDB(t *testing.T) *bun.DB {
	t.Helper()

	testDBSeq++
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", testDBSeq)

	db, err := OpenDatabase(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, CreateSchema(context.Background(), db))
	return db
}

func TestUsersRepositoryRegister(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := NewUsersRepository(db)

	user, err := repo.Register(ctx, &User{
		Name:         "Ada",
		Email:        "  ADA@Example.com ",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	t.Run("normalizes the email and derives defaults", func(t *testing.T) {
		assert.Equal(t, "ada@example.com", user.Email)
		assert.NotEmpty(t, user.ID)
		assert.Contains(t, user.Avatar, "gravatar.com")
	})

	t.Run("unique index backstops duplicate registration", func(t *testing.T) {
		_, err := repo.Register(ctx, &User{
			Name:         "Ada Again",
			Email:        "ada@example.com",
			PasswordHash: "hash2",
		})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("resolves by email and by id", func(t *testing.T) {
		byEmail, err := repo.GetByIdentifier(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		byID, err := repo.GetByIdentifier(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", byID.Email)
	})

	t.Run("unknown identifier is a not found", func(t *testing.T) {
		_, err := repo.GetByIdentifier(ctx, "ghost@example.com")
		require.Error(t, err)
	})
}

func TestUsersRepositoryLoginTracking(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := NewUsersRepository(db)

	user, err := repo.Register(ctx, &User{
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	require.NoError(t, repo.TrackAttemptedLogin(ctx, user))
	require.NoError(t, repo.TrackAttemptedLogin(ctx, user))

	reloaded, err := repo.GetByIdentifier(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.LoginAttempts)
	assert.NotNil(t, reloaded.LoginAttemptAt)

	require.NoError(t, repo.TrackSuccessfulLogin(ctx, user))

	reloaded, err = repo.GetByIdentifier(ctx, user.Email)
	require.NoError(t, err)
	assert.Zero(t, reloaded.LoginAttempts)
	assert.Nil(t, reloaded.LoginAttemptAt)
	assert.NotNil(t, reloaded.LoggedInAt)
}

func TestProfilesRepositorySave(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	users := NewUsersRepository(db)
	profiles := NewProfilesRepository(db)

	user, err := users.Register(ctx, &User{Name: "Ada", Email: "ada@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	first, err := profiles.Save(ctx, &Profile{
		UserID: user.ID,
		Status: "Developer",
		Skills: SkillList{"Go"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	// second save replaces the mutable columns, keeping the row identity
	second, err := profiles.Save(ctx, &Profile{
		UserID:  user.ID,
		Status:  "Senior Developer",
		Skills:  SkillList{"Go", "SQL"},
		Company: "Initech",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Senior Developer", second.Status)
	assert.Equal(t, SkillList{"Go", "SQL"}, second.Skills)

	all, err := profiles.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
