package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"consultant-hub/internal/database"
	"consultant-hub/internal/media"
	"consultant-hub/internal/models"
)

func testService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	storage, err := media.NewStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	svc := NewService(db, NewSessionStore(rdb), storage, "test-secret", time.Hour, zap.NewNop())
	return svc, mr
}

func register(t *testing.T, svc *Service, handle string) {
	t.Helper()
	_, err := svc.Register(context.Background(), RegisterInput{
		Handle:   handle,
		Email:    handle + "@example.com",
		Name:     "Dr. " + handle,
		Password: "p@ss1234",
	})
	require.NoError(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	c, err := svc.Register(ctx, RegisterInput{
		Handle:         "dr_amina",
		Email:          "amina@example.com",
		Name:           "Dr. Amina",
		Specialization: "Cardiology",
		Password:       "p@ss1234",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "dr_amina", c.Handle)
	assert.NotEqual(t, "p@ss1234", c.CredentialHash)

	token, logged, err := svc.Login(ctx, "dr_amina", "p@ss1234")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, c.ID, logged.ID)

	verified, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, verified.ID)
}

func TestRegisterDuplicateHandle(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	register(t, svc, "dr_amina")
	_, err := svc.Register(ctx, RegisterInput{
		Handle:   "dr_amina",
		Email:    "other@example.com",
		Name:     "Impostor",
		Password: "p@ss1234",
	})
	require.ErrorIs(t, err, ErrDuplicateHandle)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Handle: "x", Email: "x@example.com", Password: "short"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, RegisterInput{Handle: "", Email: "x@example.com", Password: "p@ss1234"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	register(t, svc, "dr_amina")

	_, _, err := svc.Login(ctx, "dr_amina", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "p@ss1234")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyGarbageToken(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Verify(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	register(t, svc, "dr_amina")
	token, _, err := svc.Login(ctx, "dr_amina", "p@ss1234")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	// The token is structurally valid and unexpired, but its session is gone.
	_, err = svc.Verify(ctx, token)
	require.ErrorIs(t, err, ErrUnauthenticated)

	// Logging out again is a no-op.
	assert.NoError(t, svc.Logout(ctx, token))
}

func TestSessionExpiry(t *testing.T) {
	svc, mr := testService(t)
	ctx := context.Background()

	register(t, svc, "dr_amina")
	token, _, err := svc.Login(ctx, "dr_amina", "p@ss1234")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = svc.Verify(ctx, token)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	c, err := svc.Register(ctx, RegisterInput{
		Handle:   "dr_amina",
		Email:    "amina@example.com",
		Name:     "Dr. Amina",
		Password: "p@ss1234",
	})
	require.NoError(t, err)

	name := "Dr. Amina Yusuf"
	spec := "Cardiology"
	bio := "Heart health."
	updated, err := svc.UpdateProfile(ctx, c.ID, ProfileUpdate{
		Name:           &name,
		Specialization: &spec,
		Bio:            &bio,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Amina Yusuf", updated.Name)
	assert.Equal(t, "Cardiology", updated.Specialization)
	assert.Equal(t, "Heart health.", updated.Bio)

	// A partial update leaves the unmentioned fields alone.
	newName := "Dr. A. Yusuf"
	updated, err = svc.UpdateProfile(ctx, c.ID, ProfileUpdate{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Dr. A. Yusuf", updated.Name)
	assert.Equal(t, "Cardiology", updated.Specialization)
	assert.Equal(t, "Heart health.", updated.Bio)
}

func TestRegisterRaceFallsBackToUniqueIndex(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	// Slip a rival registration in after the existence pre-check has run,
	// right before Register's own insert, the way a concurrent request
	// would. The unique index is the source of truth and the resulting
	// driver error must map to the same duplicate error.
	raced := false
	require.NoError(t, svc.db.Callback().Create().Before("gorm:create").Register("rival_insert", func(tx *gorm.DB) {
		if raced {
			return
		}
		raced = true
		rival := &models.Consultant{
			ID:             uuid.New().String(),
			Handle:         "dr_amina",
			Email:          "rival@example.com",
			Name:           "Dr. Rival",
			CredentialHash: "x",
		}
		if err := svc.db.Session(&gorm.Session{NewDB: true}).Create(rival).Error; err != nil {
			tx.AddError(err)
		}
	}))

	_, err := svc.Register(ctx, RegisterInput{
		Handle:   "dr_amina",
		Email:    "amina@example.com",
		Name:     "Dr. Amina",
		Password: "p@ss1234",
	})
	require.ErrorIs(t, err, ErrDuplicateHandle)
	assert.True(t, raced)
}

func TestUniqueViolationDetection(t *testing.T) {
	svc, _ := testService(t)

	register(t, svc, "dr_amina")
	err := svc.db.Create(&models.Consultant{
		ID:             uuid.New().String(),
		Handle:         "dr_amina",
		Email:          "rival@example.com",
		Name:           "Dr. Rival",
		CredentialHash: "x",
	}).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}
