package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"consultant-hub/internal/media"
	"consultant-hub/internal/models"
)

var (
	ErrDuplicateHandle    = errors.New("handle or email already registered")
	ErrInvalidCredentials = errors.New("invalid handle or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrValidation         = errors.New("invalid input")
	ErrNotFound           = errors.New("consultant not found")
)

type RegisterInput struct {
	Handle         string
	Email          string
	Name           string
	Specialization string
	Bio            string
	Password       string
	Avatar         *media.Upload
}

// ProfileUpdate carries the mutable profile fields. Nil means "leave as is",
// so a partial update never clears a field it did not mention.
type ProfileUpdate struct {
	Name           *string
	Specialization *string
	Bio            *string
	Avatar         *media.Upload
}

// Service registers consultants, verifies credentials and manages session
// tokens. Credential hashes never leave this package.
type Service struct {
	db       *gorm.DB
	sessions *SessionStore
	storage  *media.Storage
	secret   []byte
	ttl      time.Duration
	log      *zap.Logger
}

func NewService(db *gorm.DB, sessions *SessionStore, storage *media.Storage, secret string, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		sessions: sessions,
		storage:  storage,
		secret:   []byte(secret),
		ttl:      ttl,
		log:      log,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Consultant, error) {
	in.Handle = strings.TrimSpace(strings.ToLower(in.Handle))
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	if in.Handle == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: handle, email and password are required", ErrValidation)
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Consultant{}).
		Where("handle = ? OR email = ?", in.Handle, in.Email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateHandle
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	c := &models.Consultant{
		ID:             uuid.New().String(),
		Handle:         in.Handle,
		Email:          in.Email,
		Name:           in.Name,
		Specialization: strings.TrimSpace(in.Specialization),
		Bio:            in.Bio,
		CredentialHash: string(hash),
	}

	if in.Avatar != nil {
		stored, err := s.storage.Store(ctx, c.ID, in.Avatar.Filename, in.Avatar.ContentType, in.Avatar.Data)
		if err != nil {
			return nil, err
		}
		c.AvatarPath = stored.Path
	}

	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		if c.AvatarPath != "" {
			_ = s.storage.Remove(ctx, c.AvatarPath)
		}
		// Pre-check raced with another registration; the unique index is
		// the source of truth.
		if isUniqueViolation(err) {
			return nil, ErrDuplicateHandle
		}
		return nil, err
	}

	s.log.Info("consultant registered", zap.String("id", c.ID), zap.String("handle", c.Handle))
	return c, nil
}

// Login checks the credentials and issues a session token. Unknown handle
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, handle, password string) (string, *models.Consultant, error) {
	handle = strings.TrimSpace(strings.ToLower(handle))

	var c models.Consultant
	err := s.db.WithContext(ctx).Where("handle = ?", handle).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.CredentialHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	jti := uuid.New().String()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   c.ID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}

	if err := s.sessions.Put(ctx, jti, c.ID, s.ttl); err != nil {
		return "", nil, err
	}

	s.log.Info("consultant logged in", zap.String("id", c.ID))
	return token, &c, nil
}

// Verify resolves a session token to its consultant.
func (s *Service) Verify(ctx context.Context, token string) (*models.Consultant, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	owner, err := s.sessions.Get(ctx, claims.ID)
	if errors.Is(err, ErrNoSession) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if owner != claims.Subject {
		return nil, ErrUnauthenticated
	}

	var c models.Consultant
	err = s.db.WithContext(ctx).Where("id = ?", claims.Subject).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Logout invalidates the token's session. Unknown or malformed tokens are
// treated as already logged out.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, claims.ID)
}

// UpdateProfile edits the mutable profile fields. A replacement avatar
// removes the old file best-effort after the row update.
func (s *Service) UpdateProfile(ctx context.Context, consultantID string, in ProfileUpdate) (*models.Consultant, error) {
	var c models.Consultant
	if err := s.db.WithContext(ctx).Where("id = ?", consultantID).First(&c).Error; err != nil {
		return nil, err
	}

	oldAvatar := ""
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Specialization != nil {
		c.Specialization = strings.TrimSpace(*in.Specialization)
	}
	if in.Bio != nil {
		c.Bio = *in.Bio
	}
	if in.Avatar != nil {
		stored, err := s.storage.Store(ctx, c.ID, in.Avatar.Filename, in.Avatar.ContentType, in.Avatar.Data)
		if err != nil {
			return nil, err
		}
		oldAvatar = c.AvatarPath
		c.AvatarPath = stored.Path
	}

	if err := s.db.WithContext(ctx).Save(&c).Error; err != nil {
		if in.Avatar != nil {
			_ = s.storage.Remove(ctx, c.AvatarPath)
		}
		return nil, err
	}
	if oldAvatar != "" {
		_ = s.storage.Remove(ctx, oldAvatar)
	}
	return &c, nil
}

// GetConsultant is the public profile lookup.
func (s *Service) GetConsultant(ctx context.Context, id string) (*models.Consultant, error) {
	var c models.Consultant
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthenticated
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
