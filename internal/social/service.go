package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"consultant-hub/internal/models"
)

var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrSelfFollow = errors.New("cannot follow self")
)

// Counts carries per-post interaction counts for feed rendering.
type Counts struct {
	Likes    int64
	Comments int64
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ToggleLike likes the post when no like exists and removes the like
// otherwise. Returns whether the post is liked after the call.
func (s *Service) ToggleLike(ctx context.Context, consultantID, postID string) (bool, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return false, err
	}

	res := s.db.WithContext(ctx).
		Where("post_id = ? AND consultant_id = ?", postID, consultantID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	like := &models.Like{ID: uuid.New().String(), PostID: postID, ConsultantID: consultantID}
	// A concurrent like of the same pair is a no-op, not an error.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) AddComment(ctx context.Context, consultantID, postID, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: empty comment", ErrValidation)
	}
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}

	c := &models.Comment{
		ID:           uuid.New().String(),
		PostID:       postID,
		ConsultantID: consultantID,
		Body:         body,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Preload("Consultant").First(c, "id = ?", c.ID).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments returns a post's comments oldest-first.
func (s *Service) ListComments(ctx context.Context, postID string, page, pageSize int) ([]*models.Comment, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	var res []*models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Preload("Consultant").
		Find(&res).Error
	return res, err
}

// Follow is idempotent; following yourself is rejected.
func (s *Service) Follow(ctx context.Context, followerID, consultantID string) error {
	if followerID == consultantID {
		return ErrSelfFollow
	}
	if err := s.consultantExists(ctx, consultantID); err != nil {
		return err
	}
	f := &models.Follower{ID: uuid.New().String(), ConsultantID: consultantID, FollowerID: followerID}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f).Error
}

func (s *Service) Unfollow(ctx context.Context, followerID, consultantID string) error {
	return s.db.WithContext(ctx).
		Where("consultant_id = ? AND follower_id = ?", consultantID, followerID).
		Delete(&models.Follower{}).Error
}

func (s *Service) FollowerCount(ctx context.Context, consultantID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Follower{}).
		Where("consultant_id = ?", consultantID).
		Count(&n).Error
	return n, err
}

// CountsFor returns like and comment counts keyed by post ID.
func (s *Service) CountsFor(ctx context.Context, postIDs []string) (map[string]Counts, error) {
	out := make(map[string]Counts, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	type row struct {
		PostID string
		N      int64
	}

	var likeRows []row
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&likeRows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range likeRows {
		c := out[r.PostID]
		c.Likes = r.N
		out[r.PostID] = c
	}

	var commentRows []row
	err = s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&commentRows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range commentRows {
		c := out[r.PostID]
		c.Comments = r.N
		out[r.PostID] = c
	}
	return out, nil
}

func (s *Service) postExists(ctx context.Context, postID string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) consultantExists(ctx context.Context, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Consultant{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
