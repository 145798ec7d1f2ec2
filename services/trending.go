package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ripple-social/ripple/models"
)

// trendingCandidateCap bounds how many recent posts a sweep scores.
const trendingCandidateCap = 500

var trendingWindows = map[string]time.Duration{
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// TrendingItem is a scored post in a trending listing.
type TrendingItem struct {
	PostView
	Score float64 `json:"score"`
}

// TrendingResult is the ranked outcome of one trending query.
type TrendingResult struct {
	Window     string         `json:"window"`
	Items      []TrendingItem `json:"items"`
	IsFallback bool           `json:"is_fallback"`
}

type trendingRow struct {
	ID           uint
	UserID       uint
	Content      string
	MediaURL     *string
	ParentPostID *uint
	IsDraft      bool
	ScheduledAt  *time.Time
	PublishedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LikeCount    int64
	DislikeCount int64
	RepostCount  int64
}

// Trending ranks recently published posts by engagement decayed over
// age. When the window holds no posts at all, the most engaged live
// posts overall are returned instead, flagged as fallback.
func (s *PostService) Trending(window string, limit int, viewerID uint) (*TrendingResult, error) {
	if window == "" {
		window = "24h"
	}
	span, ok := trendingWindows[window]
	if !ok {
		return nil, fmt.Errorf("window %q: %w", window, ErrValidation)
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	now := time.Now()
	rows, err := s.trendingCandidates(now, now.Add(-span))
	if err != nil {
		return nil, err
	}

	isFallback := false
	if len(rows) == 0 {
		rows, err = s.fallbackCandidates(now, limit)
		if err != nil {
			return nil, err
		}
		isFallback = true
	}

	scored := make([]trendingRow, len(rows))
	scores := make(map[uint]float64, len(rows))
	copy(scored, rows)
	for _, r := range scored {
		scores[r.ID] = trendingScore(r, now)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		si, sj := scores[scored[i].ID], scores[scored[j].ID]
		if si != sj {
			return si > sj
		}
		return scored[i].PublishedAt.After(*scored[j].PublishedAt)
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	items, err := s.buildTrendingItems(scored, scores, viewerID, isFallback)
	if err != nil {
		return nil, err
	}
	return &TrendingResult{Window: window, Items: items, IsFallback: isFallback}, nil
}

func (s *PostService) trendingCandidates(now, cutoff time.Time) ([]trendingRow, error) {
	var rows []trendingRow
	err := s.db.Raw(`
		SELECT p.id, p.user_id, p.content, p.media_url, p.parent_post_id,
		       p.is_draft, p.scheduled_at, p.published_at, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM post_likes   l WHERE l.post_id = p.id AND l.type = ?) AS like_count,
		       (SELECT COUNT(*) FROM post_likes   l WHERE l.post_id = p.id AND l.type = ?) AS dislike_count,
		       (SELECT COUNT(*) FROM post_reposts r WHERE r.post_id = p.id)                AS repost_count
		FROM posts p
		WHERE p.is_draft = ? AND p.published_at IS NOT NULL
		  AND p.published_at <= ? AND p.published_at >= ?
		ORDER BY p.published_at DESC
		LIMIT ?`,
		models.ReactionLike, models.ReactionDislike, false, now, cutoff, trendingCandidateCap).
		Scan(&rows).Error
	return rows, err
}

// fallbackCandidates ignores the window and picks the most engaged live
// posts outright.
func (s *PostService) fallbackCandidates(now time.Time, limit int) ([]trendingRow, error) {
	var rows []trendingRow
	err := s.db.Raw(`
		SELECT p.id, p.user_id, p.content, p.media_url, p.parent_post_id,
		       p.is_draft, p.scheduled_at, p.published_at, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM post_likes   l WHERE l.post_id = p.id AND l.type = ?) AS like_count,
		       (SELECT COUNT(*) FROM post_likes   l WHERE l.post_id = p.id AND l.type = ?) AS dislike_count,
		       (SELECT COUNT(*) FROM post_reposts r WHERE r.post_id = p.id)                AS repost_count
		FROM posts p
		WHERE p.is_draft = ? AND p.published_at IS NOT NULL AND p.published_at <= ?
		ORDER BY (like_count + repost_count) DESC, p.published_at DESC
		LIMIT ?`,
		models.ReactionLike, models.ReactionDislike, false, now, limit).
		Scan(&rows).Error
	return rows, err
}

// trendingScore decays raw engagement by post age so that fresh posts
// with similar engagement outrank stale ones.
func trendingScore(r trendingRow, now time.Time) float64 {
	ageHours := now.Sub(*r.PublishedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	raw := float64(2*r.LikeCount + 3*r.RepostCount - r.DislikeCount)
	score := raw / math.Pow(ageHours+2, 1.5)
	return math.Round(score*100) / 100
}

func (s *PostService) buildTrendingItems(rows []trendingRow, scores map[uint]float64, viewerID uint, isFallback bool) ([]TrendingItem, error) {
	if len(rows) == 0 {
		return []TrendingItem{}, nil
	}
	postIDs := make([]uint, 0, len(rows))
	authorIDs := make([]uint, 0, len(rows))
	for _, r := range rows {
		postIDs = append(postIDs, r.ID)
		authorIDs = append(authorIDs, r.UserID)
	}

	authors, err := s.authorSummaries(authorIDs)
	if err != nil {
		return nil, err
	}
	states, err := s.engagement.BatchViewerState(postIDs, viewerID)
	if err != nil {
		return nil, err
	}

	items := make([]TrendingItem, 0, len(rows))
	for _, r := range rows {
		post := models.Post{
			ID:           r.ID,
			UserID:       r.UserID,
			Content:      r.Content,
			MediaURL:     r.MediaURL,
			ParentPostID: r.ParentPostID,
			IsDraft:      r.IsDraft,
			ScheduledAt:  r.ScheduledAt,
			PublishedAt:  r.PublishedAt,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		}
		items = append(items, TrendingItem{
			PostView: PostView{
				Post:   post,
				Author: authors[r.UserID],
				Engagement: EngagementCounts{
					Likes:    r.LikeCount,
					Dislikes: r.DislikeCount,
					Reposts:  r.RepostCount,
				},
				Viewer:     states[r.ID],
				IsOwner:    viewerID != 0 && r.UserID == viewerID,
				IsFallback: isFallback,
			},
			Score: scores[r.ID],
		})
	}
	return items, nil
}
