package posts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"consultant-hub/internal/database"
	"consultant-hub/internal/media"
	"consultant-hub/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testConsultant(t *testing.T, db *gorm.DB, handle string) *models.Consultant {
	t.Helper()
	c := &models.Consultant{
		ID:             uuid.New().String(),
		Handle:         handle,
		Email:          handle + "@example.com",
		Name:           "Dr. " + handle,
		Specialization: "Cardiology",
		CredentialHash: "x",
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func testService(t *testing.T, db *gorm.DB) (*Service, *media.Storage) {
	t.Helper()
	storage, err := media.NewStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return NewService(db, storage, nil, zap.NewNop()), storage
}

func upload(name, mime, body string) media.Upload {
	return media.Upload{Filename: name, ContentType: mime, Data: strings.NewReader(body)}
}

func TestCreateTextOnly(t *testing.T) {
	db := testDB(t)
	svc, _ := testService(t, db)
	c := testConsultant(t, db, "dr_amina")

	post, err := svc.Create(context.Background(), c.ID, "Hello patients", nil)
	require.NoError(t, err)
	assert.Equal(t, c.ID, post.ConsultantID)
	assert.Equal(t, "Hello patients", post.Body)
	assert.True(t, post.Visible)
	assert.Equal(t, c.Handle, post.Consultant.Handle)
}

func TestCreateWithMedia(t *testing.T) {
	db := testDB(t)
	svc, storage := testService(t, db)
	c := testConsultant(t, db, "dr_amina")

	post, err := svc.Create(context.Background(), c.ID, "With a scan",
		[]media.Upload{upload("scan.png", "image/png", "png-bytes"), upload("clip.mp4", "video/mp4", "vid")})
	require.NoError(t, err)
	require.Len(t, post.Media, 2)
	assert.Equal(t, models.MediaTypeImage, post.Media[0].Type)
	assert.Equal(t, models.MediaTypeVideo, post.Media[1].Type)
	assert.Equal(t, []int{0, 1}, []int{post.Media[0].Position, post.Media[1].Position})

	_, err = os.Stat(filepath.Join(storage.Root(), filepath.FromSlash(post.Media[0].Path)))
	assert.NoError(t, err)
}

func TestCreateEmptyRejected(t *testing.T) {
	db := testDB(t)
	svc, _ := testService(t, db)
	c := testConsultant(t, db, "dr_amina")

	_, err := svc.Create(context.Background(), c.ID, "   ", nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateUnsupportedMediaLeavesNoRows(t *testing.T) {
	db := testDB(t)
	svc, _ := testService(t, db)
	c := testConsultant(t, db, "dr_amina")

	_, err := svc.Create(context.Background(), c.ID, "body",
		[]media.Upload{upload("notes.pdf", "application/pdf", "pdf")})
	require.ErrorIs(t, err, media.ErrUnsupportedMediaType)

	var n int64
	require.NoError(t, db.Model(&models.Post{}).Count(&n).Error)
	assert.Zero(t, n)
}

// failAfterStore succeeds for the first store and fails afterwards, to
// exercise the all-or-nothing upload path.
type failAfterStore struct {
	inner   *media.Storage
	calls   int
	removed []string
}

func (f *failAfterStore) Store(ctx context.Context, consultantID, filename, mime string, r io.Reader) (*media.StoredFile, error) {
	f.calls++
	if f.calls > 1 {
		return nil, media.ErrStorage
	}
	return f.inner.Store(ctx, consultantID, filename, mime, r)
}

func (f *failAfterStore) Remove(ctx context.Context, relPath string) error {
	f.removed = append(f.removed, relPath)
	return f.inner.Remove(ctx, relPath)
}

func TestCreateMediaFailureLeavesNoPartialState(t *testing.T) {
	db := testDB(t)
	inner, err := media.NewStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	store := &failAfterStore{inner: inner}
	svc := NewService(db, store, nil, zap.NewNop())
	c := testConsultant(t, db, "dr_amina")

	_, err = svc.Create(context.Background(), c.ID, "two files",
		[]media.Upload{upload("a.png", "image/png", "a"), upload("b.png", "image/png", "b")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, media.ErrStorage))

	var posts, mediaRows int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Media{}).Count(&mediaRows).Error)
	assert.Zero(t, posts, "failed create must leave zero post rows")
	assert.Zero(t, mediaRows, "failed create must leave zero media rows")
	assert.Len(t, store.removed, 1, "the already-stored file must be compensated")
}

func TestFeedOrderingAndPagination(t *testing.T) {
	db := testDB(t)
	svc, _ := testService(t, db)
	c := testConsultant(t, db, "dr_amina")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		p := &models.Post{
			ID:           uuid.New().String(),
			ConsultantID: c.ID,
			Body:         fmt.Sprintf("post %d", i),
			Visible:      true,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(p).Error)
	}

	ctx := context.Background()
	page1, err := svc.Feed(ctx, FeedFilter{Page: 1, PageSize: 3})
	require.NoError(t, err)
	require.Len(t, page1, 3)
	for i := 1; i < len(page1); i++ {
		assert.False(t, page1[i].CreatedAt.After(page1[i-1].CreatedAt),
			"feed must be non-increasing by creation time")
	}
	assert.Equal(t, "post 4", page1[0].Body)

	page2, err := svc.Feed(ctx, FeedFilter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "post 1", page2[0].Body)
}

func TestFeedHidesInvisiblePosts(t *testing.T) {
	db := testDB(t)
	svc, _ := testService(t, db)
	c := testConsultant(t, db, "dr_amina")

	hidden := &models.Post{ID: uuid.New().String(), ConsultantID: c.ID, Body: "draft", Visible: false}
	require.NoError(t, db.Create(hidden).Error)

	list, err := svc.Feed(context.Background(), FeedFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFeedFilters(t *testing.T) {
	db := testDB(t)
	svc, _ := testService(t, db)
	cardio := testConsultant(t, db, "dr_amina")
	derm := &models.Consultant{
		ID: uuid.New().String(), Handle: "dr_chen", Email: "chen@example.com",
		Name: "Dr. Chen", Specialization: "Dermatology", CredentialHash: "x",
	}
	require.NoError(t, db.Create(derm).Error)

	ctx := context.Background()
	_, err := svc.Create(ctx, cardio.ID, "Heart tips", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, derm.ID, "Skin tips", nil)
	require.NoError(t, err)

	bySpec, err := svc.Feed(ctx, FeedFilter{Specialization: "derm"})
	require.NoError(t, err)
	require.Len(t, bySpec, 1)
	assert.Equal(t, derm.ID, bySpec[0].ConsultantID)

	byText, err := svc.Feed(ctx, FeedFilter{Query: "heart"})
	require.NoError(t, err)
	require.Len(t, byText, 1)
	assert.Equal(t, cardio.ID, byText[0].ConsultantID)
}

func TestGetNotFound(t *testing.T) {
	db := testDB(t)
	svc, _ := testService(t, db)

	_, err := svc.Get(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOwnerOnly(t *testing.T) {
	db := testDB(t)
	svc, _ := testService(t, db)
	owner := testConsultant(t, db, "dr_amina")
	other := testConsultant(t, db, "dr_chen")

	ctx := context.Background()
	post, err := svc.Create(ctx, owner.ID, "original", nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, other.ID, post.ID, "hijacked", nil)
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, owner.ID, post.ID, "edited", nil)
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Body)
}

func TestDeleteRemovesRowsAndFiles(t *testing.T) {
	db := testDB(t)
	svc, storage := testService(t, db)
	owner := testConsultant(t, db, "dr_amina")
	other := testConsultant(t, db, "dr_chen")

	ctx := context.Background()
	post, err := svc.Create(ctx, owner.ID, "with media",
		[]media.Upload{upload("scan.png", "image/png", "png")})
	require.NoError(t, err)
	mediaPath := post.Media[0].Path

	require.ErrorIs(t, svc.Delete(ctx, other.ID, post.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, owner.ID, post.ID))

	_, err = svc.Get(ctx, post.ID)
	require.ErrorIs(t, err, ErrNotFound)

	var mediaRows int64
	require.NoError(t, db.Model(&models.Media{}).Count(&mediaRows).Error)
	assert.Zero(t, mediaRows)

	_, statErr := os.Stat(filepath.Join(storage.Root(), filepath.FromSlash(mediaPath)))
	assert.True(t, os.IsNotExist(statErr))
}
