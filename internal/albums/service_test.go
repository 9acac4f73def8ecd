package albums

import (
	"context"
	"testing"

	"github.com/anoixa/clone-gallery/database"
	"github.com/anoixa/clone-gallery/database/dbtest"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/database/repo/albums"
	"github.com/anoixa/clone-gallery/database/repo/images"
	"github.com/anoixa/clone-gallery/internal/access"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, database.Provider) {
	t.Helper()
	db := dbtest.NewProvider(t)
	return NewService(albums.NewRepository(db), images.NewRepository(db)), db
}

func seedUser(t *testing.T, db database.Provider, username string, role models.Role) *access.Requester {
	t.Helper()
	u := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		Name:         username,
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.DB().Create(u).Error)
	return &access.Requester{ID: u.ID, Role: role}
}

func seedImage(t *testing.T, db database.Provider, owner string, privacy models.Privacy) *models.Image {
	t.Helper()
	img := &models.Image{
		Title:        "img",
		URL:          "/uploads/images/x.png",
		ThumbnailURL: "/uploads/thumbnails/x.jpg",
		UploaderID:   owner,
		Privacy:      privacy,
	}
	require.NoError(t, images.NewRepository(db).CreateWithTags(context.Background(), img, nil))
	return img
}

func TestCreate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	editor := seedUser(t, db, "editor", models.RoleEditor)
	visitor := seedUser(t, db, "visitor", models.RoleVisitor)

	album, err := svc.Create(ctx, editor, CreateInput{Title: "  Trip  ", Description: "summer"})
	require.NoError(t, err)
	assert.Equal(t, "Trip", album.Title)
	assert.Equal(t, models.PrivacyPublic, album.Privacy)
	assert.Equal(t, editor.ID, album.CreatedBy)

	_, err = svc.Create(ctx, visitor, CreateInput{Title: "x"})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = svc.Create(ctx, nil, CreateInput{Title: "x"})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	_, err = svc.Create(ctx, editor, CreateInput{Title: " "})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.Create(ctx, editor, CreateInput{Title: "x", Privacy: "secret"})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestGetFiltersImages(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner", models.RoleEditor)
	other := seedUser(t, db, "other", models.RoleEditor)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	album, err := svc.Create(ctx, owner, CreateInput{Title: "mixed"})
	require.NoError(t, err)
	pub := seedImage(t, db, owner.ID, models.PrivacyPublic)
	priv := seedImage(t, db, owner.ID, models.PrivacyPrivate)
	require.NoError(t, svc.AddImage(ctx, owner, album.ID, pub.ID))
	require.NoError(t, svc.AddImage(ctx, owner, album.ID, priv.ID))

	detail, err := svc.Get(ctx, album.ID, other)
	require.NoError(t, err)
	require.Len(t, detail.Images, 1)
	assert.Equal(t, pub.ID, detail.Images[0].ID)
	require.NotNil(t, detail.CoverImageID)
	assert.Equal(t, pub.ID, *detail.CoverImageID)

	detail, err = svc.Get(ctx, album.ID, owner)
	require.NoError(t, err)
	assert.Len(t, detail.Images, 2)

	detail, err = svc.Get(ctx, album.ID, admin)
	require.NoError(t, err)
	assert.Len(t, detail.Images, 2)

	_, err = svc.Get(ctx, 9999, owner)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPrivateAlbum(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner", models.RoleEditor)
	other := seedUser(t, db, "other", models.RoleEditor)

	album, err := svc.Create(ctx, owner, CreateInput{Title: "hidden", Privacy: models.PrivacyPrivate})
	require.NoError(t, err)

	_, err = svc.Get(ctx, album.ID, nil)
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = svc.Get(ctx, album.ID, other)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	res, err := svc.List(ctx, other, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)

	res, err = svc.List(ctx, owner, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
}

func TestModifyPermissions(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := seedUser(t, db, "owner", models.RoleEditor)
	other := seedUser(t, db, "other", models.RoleEditor)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	album, err := svc.Create(ctx, owner, CreateInput{Title: "a"})
	require.NoError(t, err)
	img := seedImage(t, db, owner.ID, models.PrivacyPublic)
	othersPrivate := seedImage(t, db, other.ID, models.PrivacyPrivate)

	assert.ErrorIs(t, svc.AddImage(ctx, other, album.ID, img.ID), errs.ErrForbidden)
	assert.ErrorIs(t, svc.AddImage(ctx, owner, album.ID, othersPrivate.ID), errs.ErrForbidden)
	assert.ErrorIs(t, svc.AddImage(ctx, owner, album.ID, "missing"), errs.ErrNotFound)
	require.NoError(t, svc.AddImage(ctx, owner, album.ID, img.ID))

	assert.ErrorIs(t, svc.RemoveImage(ctx, other, album.ID, img.ID), errs.ErrForbidden)
	require.NoError(t, svc.RemoveImage(ctx, admin, album.ID, img.ID))
	assert.ErrorIs(t, svc.RemoveImage(ctx, owner, album.ID, img.ID), errs.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, other, album.ID), errs.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, nil, album.ID), errs.ErrUnauthenticated)
	require.NoError(t, svc.Delete(ctx, owner, album.ID))
	_, err = svc.Get(ctx, album.ID, owner)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
