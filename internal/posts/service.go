package posts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"consultant-hub/internal/media"
	"consultant-hub/internal/models"
)

var (
	ErrValidation = errors.New("invalid post")
	ErrNotFound   = errors.New("post not found")
	ErrForbidden  = errors.New("not the post owner")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MediaStore is the slice of media.Storage the post service needs.
type MediaStore interface {
	Store(ctx context.Context, consultantID, filename, mime string, r io.Reader) (*media.StoredFile, error)
	Remove(ctx context.Context, relPath string) error
}

// Notifier receives publish events; the websocket hub implements it.
type Notifier interface {
	NotifyPostPublished(post *models.Post)
}

// FeedFilter narrows the public feed. Zero values mean no filtering and
// first page with the default size.
type FeedFilter struct {
	Query          string
	Specialization string
	Page           int
	PageSize       int
}

type Service struct {
	db       *gorm.DB
	storage  MediaStore
	notifier Notifier
	log      *zap.Logger
}

func NewService(db *gorm.DB, storage MediaStore, notifier Notifier, log *zap.Logger) *Service {
	return &Service{db: db, storage: storage, notifier: notifier, log: log}
}

// Create stores the uploads first, then commits the post row and its media
// rows in one transaction. If any upload fails nothing is committed; if the
// transaction fails the stored files are removed. Either way a failed create
// leaves zero rows and zero files behind.
func (s *Service) Create(ctx context.Context, consultantID, body string, uploads []media.Upload) (*models.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" && len(uploads) == 0 {
		return nil, fmt.Errorf("%w: body or media required", ErrValidation)
	}

	stored, err := s.storeAll(ctx, consultantID, uploads)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:           uuid.New().String(),
		ConsultantID: consultantID,
		Body:         body,
		Visible:      true,
	}
	for i, f := range stored {
		post.Media = append(post.Media, models.Media{
			ID:        uuid.New().String(),
			PostID:    post.ID,
			Path:      f.Path,
			Type:      f.Type,
			MimeType:  f.MimeType,
			SizeBytes: f.SizeBytes,
			Position:  i,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(post).Error
	})
	if err != nil {
		s.removeAll(ctx, stored)
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Consultant").First(post, "id = ?", post.ID).Error; err != nil {
		return nil, err
	}

	s.log.Info("post published",
		zap.String("post_id", post.ID),
		zap.String("consultant_id", consultantID),
		zap.Int("media", len(post.Media)))
	if s.notifier != nil {
		s.notifier.NotifyPostPublished(post)
	}
	return post, nil
}

// Feed returns public posts, strictly newest-first. Pagination is plain
// offset/limit, so the sequence is restartable from any page.
func (s *Service) Feed(ctx context.Context, f FeedFilter) ([]*models.Post, error) {
	page, pageSize := normalizePage(f.Page, f.PageSize)

	q := s.db.WithContext(ctx).Model(&models.Post{}).
		Joins("JOIN consultants ON consultants.id = posts.consultant_id").
		Where("posts.visible = ?", true)

	if spec := strings.TrimSpace(f.Specialization); spec != "" {
		q = q.Where("LOWER(consultants.specialization) LIKE ?", "%"+strings.ToLower(spec)+"%")
	}
	if text := strings.TrimSpace(f.Query); text != "" {
		like := "%" + strings.ToLower(text) + "%"
		q = q.Where(
			"LOWER(posts.body) LIKE ? OR LOWER(consultants.name) LIKE ? OR LOWER(consultants.bio) LIKE ? OR LOWER(consultants.specialization) LIKE ?",
			like, like, like, like)
	}

	var res []*models.Post
	err := q.Order("posts.created_at DESC, posts.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("media.position ASC") }).
		Preload("Consultant").
		Find(&res).Error
	return res, err
}

// Get returns one visible post with author and media resolved.
func (s *Service) Get(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("media.position ASC") }).
		Preload("Consultant").
		Where("id = ? AND visible = ?", id, true).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListByConsultant returns a consultant's posts newest-first. Hidden posts
// are included only when the caller is the owner.
func (s *Service) ListByConsultant(ctx context.Context, consultantID, viewerID string, page, pageSize int) ([]*models.Post, error) {
	page, pageSize = normalizePage(page, pageSize)

	q := s.db.WithContext(ctx).Where("consultant_id = ?", consultantID)
	if viewerID != consultantID {
		q = q.Where("visible = ?", true)
	}

	var res []*models.Post
	err := q.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("media.position ASC") }).
		Preload("Consultant").
		Find(&res).Error
	return res, err
}

// Update replaces the body and, when uploads are given, the attached media.
// Owner only. Replacement follows the same store-then-commit discipline as
// Create; the replaced files are removed only after the commit.
func (s *Service) Update(ctx context.Context, consultantID, postID, body string, uploads []media.Upload) (*models.Post, error) {
	post, err := s.ownedPost(ctx, consultantID, postID)
	if err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" && len(uploads) == 0 && len(post.Media) == 0 {
		return nil, fmt.Errorf("%w: body or media required", ErrValidation)
	}

	stored, err := s.storeAll(ctx, consultantID, uploads)
	if err != nil {
		return nil, err
	}

	var oldPaths []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Update("body", body).Error; err != nil {
			return err
		}
		if len(stored) == 0 {
			return nil
		}
		for _, m := range post.Media {
			oldPaths = append(oldPaths, m.Path)
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Media{}).Error; err != nil {
			return err
		}
		for i, f := range stored {
			m := models.Media{
				ID:        uuid.New().String(),
				PostID:    post.ID,
				Path:      f.Path,
				Type:      f.Type,
				MimeType:  f.MimeType,
				SizeBytes: f.SizeBytes,
				Position:  i,
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.removeAll(ctx, stored)
		return nil, err
	}
	for _, p := range oldPaths {
		_ = s.storage.Remove(ctx, p)
	}

	return s.Get(ctx, post.ID)
}

// Delete removes the post, its media rows and the stored files. Owner only.
func (s *Service) Delete(ctx context.Context, consultantID, postID string) error {
	post, err := s.ownedPost(ctx, consultantID, postID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Media{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, "id = ?", post.ID).Error
	})
	if err != nil {
		return err
	}

	for _, m := range post.Media {
		_ = s.storage.Remove(ctx, m.Path)
	}
	s.log.Info("post deleted", zap.String("post_id", postID), zap.String("consultant_id", consultantID))
	return nil
}

func (s *Service) ownedPost(ctx context.Context, consultantID, postID string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Media").Where("id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if post.ConsultantID != consultantID {
		return nil, ErrForbidden
	}
	return &post, nil
}

// storeAll writes every upload or none: the first failure removes what was
// already written and returns the error.
func (s *Service) storeAll(ctx context.Context, consultantID string, uploads []media.Upload) ([]*media.StoredFile, error) {
	var stored []*media.StoredFile
	for _, u := range uploads {
		f, err := s.storage.Store(ctx, consultantID, u.Filename, u.ContentType, u.Data)
		if err != nil {
			s.removeAll(ctx, stored)
			return nil, err
		}
		stored = append(stored, f)
	}
	return stored, nil
}

func (s *Service) removeAll(ctx context.Context, stored []*media.StoredFile) {
	for _, f := range stored {
		if err := s.storage.Remove(ctx, f.Path); err != nil {
			s.log.Warn("compensating media removal failed", zap.String("path", f.Path), zap.Error(err))
		}
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
