package account

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/app/repository/memrepo"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/PixelShop/internal/pkg/media"
	"github.com/ManuelReschke/PixelShop/internal/pkg/storage/storagetest"
)

type fixture struct {
	store *memrepo.Store
	files *storagetest.MemoryStore
	svc   *Service
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memrepo.New(),
		files: storagetest.NewMemoryStore(),
		clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.store.SetClock(func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	})
	f.svc = NewService(f.store, media.NewUploader(f.files, imageprocessor.New(1), nil))
	return f
}

func (f *fixture) addUser(t *testing.T, username, fullName string) uuid.UUID {
	t.Helper()
	u := &models.User{Email: username + "@example.com", Username: username, FullName: fullName, Role: models.RoleUser, Active: true}
	require.NoError(t, f.store.Repositories().User.Create(u))
	return u.ID
}

func avatar(t *testing.T) *media.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	return &media.File{Filename: "me.png", Data: buf.Bytes()}
}

func requireStatus(t *testing.T, err error, status int, message string) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, status, appErr.Status)
	assert.Equal(t, message, appErr.Message)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "alice", "Alice Liddell")
	f.addUser(t, "bob", "Bob Builder")
	f.addUser(t, "carol", "Carol Alison")

	all, err := f.svc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, all.Content, 3)
	assert.Equal(t, "carol", all.Content[0].Username, "newest first")
	assert.Equal(t, 20, all.Size)

	matches, err := f.svc.List(ctx, " ali ", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), matches.TotalElements)

	second, err := f.svc.List(ctx, "", 1, 2)
	require.NoError(t, err)
	require.Len(t, second.Content, 1)
	assert.Equal(t, "alice", second.Content[0].Username)
	assert.True(t, second.Last)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice", "")
	f.addUser(t, "bob", "")

	dto, err := f.svc.UpdateProfile(ctx, alice, ProfileInput{Username: " alice_w ", FullName: " Alice W "})
	require.NoError(t, err)
	assert.Equal(t, "alice_w", dto.Username)
	assert.Equal(t, "Alice W", dto.FullName)

	same, err := f.svc.UpdateProfile(ctx, alice, ProfileInput{Username: "alice_w", FullName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", same.FullName)

	_, err = f.svc.UpdateProfile(ctx, alice, ProfileInput{Username: "bob"})
	requireStatus(t, err, http.StatusConflict, MsgUsernameTaken)

	_, err = f.svc.UpdateProfile(ctx, uuid.New(), ProfileInput{Username: "nobody"})
	requireStatus(t, err, http.StatusNotFound, MsgUserNotFound)
}

func TestUpdateAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice", "")

	first, err := f.svc.UpdateAvatar(ctx, alice, avatar(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.AvatarURL, "https://cdn.test/avatars/"))

	second, err := f.svc.UpdateAvatar(ctx, alice, avatar(t))
	require.NoError(t, err)
	assert.NotEqual(t, first.AvatarURL, second.AvatarURL)
	assert.Equal(t, 1, f.files.Count(), "previous avatar released")
	assert.Equal(t, []string{strings.TrimPrefix(first.AvatarURL, "https://cdn.test/")}, f.files.Deleted())
}

func TestUpdateAvatarRejectsBadFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice", "")

	_, err := f.svc.UpdateAvatar(ctx, alice, nil)
	requireStatus(t, err, http.StatusBadRequest, MsgFileEmpty)

	_, err = f.svc.UpdateAvatar(ctx, alice, &media.File{Filename: "me.png"})
	requireStatus(t, err, http.StatusBadRequest, MsgFileEmpty)

	_, err = f.svc.UpdateAvatar(ctx, alice, &media.File{Filename: "notes.txt", Data: []byte("hello")})
	requireStatus(t, err, http.StatusBadRequest, MsgNotAnImage)

	_, err = f.svc.UpdateAvatar(ctx, alice, &media.File{Filename: "me.png", Data: []byte("<!DOCTYPE html><html></html>")})
	requireStatus(t, err, http.StatusBadRequest, MsgNotAnImage)

	assert.Equal(t, 0, f.files.Count())
}

func TestUpdateAvatarUnknownUserReleasesUpload(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateAvatar(context.Background(), uuid.New(), avatar(t))
	requireStatus(t, err, http.StatusNotFound, MsgUserNotFound)
	assert.Equal(t, 0, f.files.Count())
	assert.Len(t, f.files.Deleted(), 1)
}
