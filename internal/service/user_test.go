package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserServiceSubscriptionFeed(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ledger := service.NewPreferenceLedger(db)
	users := service.NewUserService(db, ledger, service.NewImageService(&service.LocalStore{Dir: t.TempDir(), BaseURL: "/media"}))
	ctx := context.Background()

	fan := testhelpers.CreateUser(t, db, "follower")
	chef := testhelpers.CreateUser(t, db, "chef01")
	baker := testhelpers.CreateUser(t, db, "baker1")
	for _, name := range []string{"one", "two", "three"} {
		testhelpers.CreateRecipe(t, db, chef, name, nil)
	}

	sub, err := users.Subscribe(ctx, fan.ID, chef.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, chef.ID, sub.ID)
	assert.True(t, sub.IsSubscribed)
	assert.Equal(t, int64(3), sub.RecipesCount)
	require.Len(t, sub.Recipes, 2)
	assert.Equal(t, "one", sub.Recipes[0].Name)
	assert.Equal(t, "/media/recipes/images/one.png", sub.Recipes[0].Image)

	_, err = users.Subscribe(ctx, fan.ID, chef.ID, 0)
	assert.ErrorIs(t, err, service.ErrDuplicateRelation)
	_, err = users.Subscribe(ctx, fan.ID, fan.ID, 0)
	assert.ErrorIs(t, err, service.ErrSelfReference)
	_, err = users.Subscribe(ctx, fan.ID, uuid.New(), 0)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = users.Subscribe(ctx, fan.ID, baker.ID, 0)
	require.NoError(t, err)

	feed, total, err := users.Subscriptions(ctx, fan.ID, types.PageRequest{Page: 1, Limit: 10}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, feed, 2)
	assert.Equal(t, chef.ID, feed[0].ID)
	assert.Len(t, feed[0].Recipes, 3, "no limit returns every recipe")
	assert.Empty(t, feed[1].Recipes)
	assert.NotNil(t, feed[1].Recipes)

	require.NoError(t, users.Unsubscribe(ctx, fan.ID, chef.ID))
	assert.ErrorIs(t, users.Unsubscribe(ctx, fan.ID, chef.ID), service.ErrNotInList)

	feed, total, err = users.Subscriptions(ctx, fan.ID, types.PageRequest{Page: 1, Limit: 10}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, baker.ID, feed[0].ID)

	_, _, err = users.Subscriptions(ctx, uuid.Nil, types.PageRequest{Page: 1, Limit: 10}, 0)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestUserServiceViews(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ledger := service.NewPreferenceLedger(db)
	users := service.NewUserService(db, ledger, service.NewImageService(&service.LocalStore{Dir: t.TempDir()}))
	ctx := context.Background()

	fan := testhelpers.CreateUser(t, db, "follower")
	chef := testhelpers.CreateUser(t, db, "chef01")
	_, err := ledger.Add(ctx, models.KindSubscription, fan.ID, chef.ID)
	require.NoError(t, err)

	list, total, err := users.ListUsers(ctx, fan.ID, types.PageRequest{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 1)
	assert.Equal(t, fan.ID, list[0].ID)

	seen, err := users.GetUser(ctx, fan.ID, chef.ID)
	require.NoError(t, err)
	assert.True(t, seen.IsSubscribed)

	anon, err := users.GetUser(ctx, uuid.Nil, chef.ID)
	require.NoError(t, err)
	assert.False(t, anon.IsSubscribed)

	me, err := users.Me(ctx, chef.ID)
	require.NoError(t, err)
	assert.Equal(t, "chef01", me.Username)

	_, err = users.Me(ctx, uuid.Nil)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	_, err = users.GetUser(ctx, uuid.Nil, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
