package web

import (
	"strings"
	"time"

	"consultant-hub/internal/models"
	"consultant-hub/internal/social"
)

// MediaURLPrefix is where the storage root is mounted for serving.
const MediaURLPrefix = "/static/media/"

// Templates receive these view models only; they never touch domain models.

type ViewerView struct {
	ID     string
	Handle string
	Name   string
}

type MediaView struct {
	URL  string
	Type string
}

type PostView struct {
	ID             string
	AuthorID       string
	AuthorName     string
	AuthorHandle   string
	Specialization string
	Body           string
	CreatedAt      time.Time
	Media          []MediaView
	Likes          int64
	Comments       int64
	Editable       bool
}

type ConsultantView struct {
	ID             string
	Handle         string
	Name           string
	Specialization string
	Bio            string
	AvatarURL      string
}

type FeedPage struct {
	Viewer         *ViewerView
	Query          string
	Specialization string
	Posts          []PostView
}

type ProfilePage struct {
	Viewer     *ViewerView
	Consultant ConsultantView
	Followers  int64
	Posts      []PostView
}

type DashboardPage struct {
	Viewer *ViewerView
	Posts  []PostView
	Error  string
}

type AuthPage struct {
	Viewer *ViewerView
	Error  string
}

type QuizPage struct {
	Viewer          *ViewerView
	Message         string
	Recommendations []string
}

func viewerView(c *models.Consultant) *ViewerView {
	if c == nil {
		return nil
	}
	return &ViewerView{ID: c.ID, Handle: c.Handle, Name: c.Name}
}

func consultantView(c *models.Consultant) ConsultantView {
	v := ConsultantView{
		ID:             c.ID,
		Handle:         c.Handle,
		Name:           c.Name,
		Specialization: c.Specialization,
		Bio:            c.Bio,
	}
	if c.AvatarPath != "" {
		v.AvatarURL = MediaURLPrefix + c.AvatarPath
	}
	return v
}

func postViews(list []*models.Post, counts map[string]social.Counts, viewerID string) []PostView {
	out := make([]PostView, 0, len(list))
	for _, p := range list {
		v := PostView{
			ID:             p.ID,
			AuthorID:       p.ConsultantID,
			AuthorName:     p.Consultant.Name,
			AuthorHandle:   p.Consultant.Handle,
			Specialization: p.Consultant.Specialization,
			Body:           p.Body,
			CreatedAt:      p.CreatedAt,
			Likes:          counts[p.ID].Likes,
			Comments:       counts[p.ID].Comments,
			Editable:       viewerID != "" && viewerID == p.ConsultantID,
		}
		for _, m := range p.Media {
			v.Media = append(v.Media, MediaView{URL: MediaURLPrefix + m.Path, Type: m.Type})
		}
		out = append(out, v)
	}
	return out
}

func recommendationLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
