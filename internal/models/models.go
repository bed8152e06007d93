package models

import (
	"time"
)

// Consultant is a registered healthcare professional who can publish posts.
type Consultant struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Handle         string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"handle"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Specialization string    `gorm:"type:varchar(255)" json:"specialization"`
	Bio            string    `gorm:"type:text" json:"bio"`
	CredentialHash string    `gorm:"type:varchar(255);not null" json:"-"`
	AvatarPath     string    `gorm:"type:varchar(512)" json:"avatar_path"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Consultant) TableName() string {
	return "consultants"
}

// Post is a public content item owned by exactly one consultant.
type Post struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConsultantID string     `gorm:"type:varchar(36);index:idx_posts_consultant;not null" json:"consultant_id"`
	Body         string     `gorm:"type:text" json:"body"`
	Visible      bool       `gorm:"default:true" json:"visible"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index:idx_posts_created" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Consultant   Consultant `gorm:"foreignKey:ConsultantID;constraint:OnDelete:CASCADE" json:"author"`
	Media        []Media    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"media"`
}

func (Post) TableName() string {
	return "posts"
}

// Media type tags.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Media is a stored upload referenced by exactly one post. It is never
// listed independently of its post.
type Media struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID    string    `gorm:"type:varchar(36);index:idx_media_post;not null" json:"post_id"`
	Path      string    `gorm:"type:varchar(512);not null" json:"path"`
	Type      string    `gorm:"type:varchar(16);not null" json:"type"` // image or video
	MimeType  string    `gorm:"type:varchar(100)" json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	Position  int       `gorm:"default:0" json:"position"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Media) TableName() string {
	return "media"
}

// Like marks that a consultant liked a post, at most once.
type Like struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID       string    `gorm:"type:varchar(36);index:idx_likes_post;uniqueIndex:ux_likes_post_consultant;not null" json:"post_id"`
	ConsultantID string    `gorm:"type:varchar(36);uniqueIndex:ux_likes_post_consultant;not null" json:"consultant_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}

// Comment is a reply on a post.
type Comment struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID       string     `gorm:"type:varchar(36);index:idx_comments_post;not null" json:"post_id"`
	ConsultantID string     `gorm:"type:varchar(36);not null" json:"consultant_id"`
	Body         string     `gorm:"type:text;not null" json:"body"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	Consultant   Consultant `gorm:"foreignKey:ConsultantID" json:"author"`
}

func (Comment) TableName() string {
	return "comments"
}

// Follower links a follower consultant to the consultant being followed.
// ConsultantID is the followee; the pair is unique.
type Follower struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConsultantID string    `gorm:"type:varchar(36);index:idx_followers_consultant;uniqueIndex:ux_followers_pair;not null" json:"consultant_id"`
	FollowerID   string    `gorm:"type:varchar(36);uniqueIndex:ux_followers_pair;not null" json:"follower_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Follower) TableName() string {
	return "followers"
}

// QuizSubmission stores one health-quiz submission together with the
// recommendations returned by the assistant.
type QuizSubmission struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConsultantID    *string   `gorm:"type:varchar(36);index" json:"consultant_id,omitempty"`
	Answer1         string    `gorm:"type:text;not null" json:"answer_1"`
	Answer2         string    `gorm:"type:text;not null" json:"answer_2"`
	Answer3         string    `gorm:"type:text" json:"answer_3"`
	ImagePath       string    `gorm:"type:varchar(512)" json:"image_path"`
	Recommendations string    `gorm:"type:text" json:"recommendations"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (QuizSubmission) TableName() string {
	return "quiz_submissions"
}
