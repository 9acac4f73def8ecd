package albums

import (
	"context"
	"testing"

	"github.com/anoixa/clone-gallery/database"
	"github.com/anoixa/clone-gallery/database/dbtest"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, db database.Provider) (*models.User, []*models.Image) {
	t.Helper()
	u := &models.User{Email: "a@example.com", Username: "a", Name: "a", PasswordHash: "x", Role: models.RoleEditor, IsActive: true}
	require.NoError(t, db.DB().Create(u).Error)

	var imgs []*models.Image
	for i := 0; i < 3; i++ {
		img := &models.Image{Title: "t", URL: "u", ThumbnailURL: "t", UploaderID: u.ID, Privacy: models.PrivacyPublic}
		require.NoError(t, db.DB().Create(img).Error)
		imgs = append(imgs, img)
	}
	return u, imgs
}

func TestAlbum_Lifecycle(t *testing.T) {
	db := dbtest.NewProvider(t)
	repo := NewRepository(db)
	ctx := context.Background()
	u, imgs := seed(t, db)

	album := &models.Album{Title: "Trip", CreatedBy: u.ID, Privacy: models.PrivacyPublic}
	require.NoError(t, repo.Create(ctx, album))

	for _, img := range imgs {
		require.NoError(t, repo.AddImage(ctx, album.ID, img.ID))
	}
	// 重复添加无副作用
	require.NoError(t, repo.AddImage(ctx, album.ID, imgs[0].ID))

	got, err := repo.GetByID(ctx, album.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CoverImageID)
	assert.Equal(t, imgs[0].ID, *got.CoverImageID)

	ordered, err := repo.Images(ctx, album.ID)
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	for i := range imgs {
		assert.Equal(t, imgs[i].ID, ordered[i].ID)
	}

	require.NoError(t, repo.RemoveImage(ctx, album.ID, imgs[0].ID))
	got, err = repo.GetByID(ctx, album.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CoverImageID)
	assert.ErrorIs(t, repo.RemoveImage(ctx, album.ID, imgs[0].ID), errs.ErrNotFound)

	infos, total, err := repo.List(ctx, ListQuery{ViewerID: u.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(2), infos[0].ImageCount)

	require.NoError(t, repo.Delete(ctx, album.ID))
	_, err = repo.GetByID(ctx, album.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAlbum_ListScope(t *testing.T) {
	db := dbtest.NewProvider(t)
	repo := NewRepository(db)
	ctx := context.Background()
	u, _ := seed(t, db)

	require.NoError(t, repo.Create(ctx, &models.Album{Title: "pub", CreatedBy: u.ID, Privacy: models.PrivacyPublic}))
	require.NoError(t, repo.Create(ctx, &models.Album{Title: "priv", CreatedBy: u.ID, Privacy: models.PrivacyPrivate}))

	_, total, err := repo.List(ctx, ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = repo.List(ctx, ListQuery{ViewerID: u.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = repo.List(ctx, ListQuery{ViewerID: "someone-else", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
