package services

import (
	"gorm.io/gorm"

	"github.com/ripple-social/ripple/models"
)

// EngagementCounts aggregates reaction and repost totals for one post.
type EngagementCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Reposts  int64 `json:"reposts"`
}

// ViewerState reports the requesting user's own engagement with a post.
// Reaction is nil when the viewer has neither liked nor disliked it.
type ViewerState struct {
	Reaction *string `json:"reaction"`
	Reposted bool    `json:"reposted"`
}

type EngagementService struct {
	db *gorm.DB
}

func NewEngagementService(db *gorm.DB) *EngagementService {
	return &EngagementService{db: db}
}

func (s *EngagementService) Counts(postID uint) (EngagementCounts, error) {
	var counts EngagementCounts
	row := s.db.Raw(`
		SELECT
			(SELECT COUNT(*) FROM post_likes WHERE post_id = ? AND type = ?)   AS likes,
			(SELECT COUNT(*) FROM post_likes WHERE post_id = ? AND type = ?)   AS dislikes,
			(SELECT COUNT(*) FROM post_reposts WHERE post_id = ?)              AS reposts`,
		postID, models.ReactionLike, postID, models.ReactionDislike, postID).Row()
	if err := row.Scan(&counts.Likes, &counts.Dislikes, &counts.Reposts); err != nil {
		return EngagementCounts{}, err
	}
	return counts, nil
}

func (s *EngagementService) ViewerState(postID, viewerID uint) (ViewerState, error) {
	if viewerID == 0 {
		return ViewerState{}, nil
	}
	states, err := s.BatchViewerState([]uint{postID}, viewerID)
	if err != nil {
		return ViewerState{}, err
	}
	return states[postID], nil
}

// BatchViewerState resolves the viewer's engagement with many posts in
// two queries regardless of how many posts are asked about.
func (s *EngagementService) BatchViewerState(postIDs []uint, viewerID uint) (map[uint]ViewerState, error) {
	states := make(map[uint]ViewerState, len(postIDs))
	for _, id := range postIDs {
		states[id] = ViewerState{}
	}
	if viewerID == 0 || len(postIDs) == 0 {
		return states, nil
	}

	var likes []models.PostLike
	if err := s.db.Where("user_id = ? AND post_id IN ?", viewerID, postIDs).Find(&likes).Error; err != nil {
		return nil, err
	}
	for _, l := range likes {
		st := states[l.PostID]
		reaction := l.Type
		st.Reaction = &reaction
		states[l.PostID] = st
	}

	var reposts []models.PostRepost
	if err := s.db.Where("user_id = ? AND post_id IN ?", viewerID, postIDs).Find(&reposts).Error; err != nil {
		return nil, err
	}
	for _, r := range reposts {
		st := states[r.PostID]
		st.Reposted = true
		states[r.PostID] = st
	}
	return states, nil
}

// batchCounts aggregates engagement counts for many posts in three
// grouped queries.
func (s *EngagementService) batchCounts(postIDs []uint) (map[uint]EngagementCounts, error) {
	counts := make(map[uint]EngagementCounts, len(postIDs))
	for _, id := range postIDs {
		counts[id] = EngagementCounts{}
	}
	if len(postIDs) == 0 {
		return counts, nil
	}

	type grouped struct {
		PostID uint
		Type   string
		N      int64
	}
	var likeRows []grouped
	if err := s.db.Model(&models.PostLike{}).
		Select("post_id, type, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id, type").
		Scan(&likeRows).Error; err != nil {
		return nil, err
	}
	for _, r := range likeRows {
		c := counts[r.PostID]
		if r.Type == models.ReactionLike {
			c.Likes = r.N
		} else {
			c.Dislikes = r.N
		}
		counts[r.PostID] = c
	}

	var repostRows []grouped
	if err := s.db.Model(&models.PostRepost{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&repostRows).Error; err != nil {
		return nil, err
	}
	for _, r := range repostRows {
		c := counts[r.PostID]
		c.Reposts = r.N
		counts[r.PostID] = c
	}
	return counts, nil
}
