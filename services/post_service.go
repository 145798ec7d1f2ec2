package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ripple-social/ripple/models"
	"github.com/ripple-social/ripple/utils"
)

const (
	maxPostContentLen = 500
	fanOutBatchSize   = 50
)

// PostView is a post enriched with its author and engagement state.
type PostView struct {
	models.Post
	Author     models.UserSummary `json:"author"`
	Engagement EngagementCounts   `json:"engagement"`
	Viewer     ViewerState        `json:"viewer"`
	IsOwner    bool               `json:"is_owner"`
	IsFallback bool               `json:"is_fallback,omitempty"`
}

// PostList is a paginated page of post views.
type PostList struct {
	Items  []PostView `json:"items"`
	Total  int64      `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// ToggleResult reports the outcome of a reaction or repost toggle.
type ToggleResult struct {
	Action     string           `json:"action"`
	Engagement EngagementCounts `json:"engagement"`
	Viewer     ViewerState      `json:"viewer"`
}

// PostAnalytics is the owner-only engagement breakdown of one post.
type PostAnalytics struct {
	PostID          uint    `json:"post_id"`
	Likes           int64   `json:"likes"`
	Dislikes        int64   `json:"dislikes"`
	Reposts         int64   `json:"reposts"`
	TotalEngagement int64   `json:"total_engagement"`
	EngagementRate  float64 `json:"engagement_rate"`
	NetSentiment    int64   `json:"net_sentiment"`
	Followers       int64   `json:"followers"`
}

type CreatePostInput struct {
	Content      string     `json:"content"`
	MediaURL     *string    `json:"media_url"`
	ParentPostID *uint      `json:"parent_post_id"`
	IsDraft      bool       `json:"is_draft"`
	ScheduledAt  *time.Time `json:"scheduled_at"`
}

type UpdatePostInput struct {
	Content     *string    `json:"content"`
	MediaURL    *string    `json:"media_url"`
	IsDraft     *bool      `json:"is_draft"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type PostService struct {
	db            *gorm.DB
	engagement    *EngagementService
	notifications *NotificationService
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{
		db:            db,
		engagement:    NewEngagementService(db),
		notifications: NewNotificationService(db),
	}
}

// Create stores a new post. A post that is neither a draft nor scheduled
// for the future is published immediately, and followers of the author
// are notified before the call returns. Fan-out failures never fail the
// create.
func (s *PostService) Create(userID uint, input CreatePostInput) (*PostView, error) {
	content := utils.SanitizeText(input.Content)
	if err := validateContent(content, input.MediaURL); err != nil {
		return nil, err
	}

	now := time.Now()
	if input.ParentPostID != nil {
		var parent models.Post
		if err := s.db.First(&parent, *input.ParentPostID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("parent post: %w", ErrNotFound)
			}
			return nil, err
		}
		if !parent.IsLive(now) {
			return nil, fmt.Errorf("parent post: %w", ErrNotFound)
		}
	}

	post := models.Post{
		UserID:       userID,
		Content:      content,
		MediaURL:     input.MediaURL,
		ParentPostID: input.ParentPostID,
		IsDraft:      input.IsDraft,
		ScheduledAt:  input.ScheduledAt,
	}
	if !input.IsDraft && (input.ScheduledAt == nil || !input.ScheduledAt.After(now)) {
		published := now
		post.PublishedAt = &published
	}

	if err := s.db.Create(&post).Error; err != nil {
		return nil, err
	}

	if post.IsLive(now) {
		s.notifyFollowers(userID, post.ID)
		if post.ParentPostID != nil {
			s.notifyReply(&post)
		}
	}

	views, err := s.buildViews([]models.Post{post}, userID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// GetByID returns a single post. Drafts and scheduled posts are only
// visible to their owner; anyone else sees not-found.
func (s *PostService) GetByID(postID, viewerID uint) (*PostView, error) {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !post.IsLive(time.Now()) && post.UserID != viewerID {
		return nil, ErrNotFound
	}
	views, err := s.buildViews([]models.Post{post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListByUser pages through one user's posts. includeDrafts is honored
// only when the viewer is the owner.
func (s *PostService) ListByUser(targetID, viewerID uint, includeDrafts bool, limit, offset int) (*PostList, error) {
	limit, offset = normalizePage(limit, offset)

	query := s.db.Model(&models.Post{}).Where("user_id = ?", targetID)
	ownerView := includeDrafts && targetID == viewerID
	if !ownerView {
		query = query.Where("is_draft = ? AND published_at IS NOT NULL AND published_at <= ?", false, time.Now())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var posts []models.Post
	if err := query.Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	items, err := s.buildViews(posts, viewerID)
	if err != nil {
		return nil, err
	}
	return &PostList{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// Update edits an owned post. The parent reference is immutable, and a
// draft promoted to published gets its publish time derived the same
// way Create does.
func (s *PostService) Update(postID, userID uint, input UpdatePostInput) (*PostView, error) {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}

	if input.Content != nil {
		content := utils.SanitizeText(*input.Content)
		media := post.MediaURL
		if input.MediaURL != nil {
			media = input.MediaURL
		}
		if err := validateContent(content, media); err != nil {
			return nil, err
		}
		post.Content = content
	}
	if input.MediaURL != nil {
		post.MediaURL = input.MediaURL
	}
	if input.ScheduledAt != nil {
		post.ScheduledAt = input.ScheduledAt
	}
	if input.IsDraft != nil {
		post.IsDraft = *input.IsDraft
	}

	now := time.Now()
	wasLive := post.PublishedAt != nil
	if !post.IsDraft && post.PublishedAt == nil &&
		(post.ScheduledAt == nil || !post.ScheduledAt.After(now)) {
		published := now
		post.PublishedAt = &published
	}

	if err := s.db.Save(&post).Error; err != nil {
		return nil, err
	}

	if !wasLive && post.IsLive(now) {
		s.notifyFollowers(userID, post.ID)
		if post.ParentPostID != nil {
			s.notifyReply(&post)
		}
	}

	views, err := s.buildViews([]models.Post{post}, userID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Delete removes an owned post along with its reactions, reposts and
// notifications. Replies survive but lose their parent reference.
func (s *PostService) Delete(postID, userID uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostRepost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).
			Where("parent_post_id = ?", postID).
			Update("parent_post_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ToggleReaction adds, switches or removes a like/dislike in a single
// transaction. Reacting again with the same type removes it; reacting
// with the other type switches the existing row in place.
func (s *PostService) ToggleReaction(postID, userID uint, reaction string) (*ToggleResult, error) {
	if reaction != models.ReactionLike && reaction != models.ReactionDislike {
		return nil, fmt.Errorf("reaction %q: %w", reaction, ErrValidation)
	}

	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !post.IsLive(time.Now()) {
		return nil, ErrNotFound
	}
	if post.UserID == userID {
		return nil, ErrSelfAction
	}

	var action string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.PostLike
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			action = "added"
			like := models.PostLike{PostID: postID, UserID: userID, Type: reaction}
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"type": reaction}),
			}).Create(&like).Error
		case err != nil:
			return err
		case existing.Type == reaction:
			action = "removed"
			return tx.Delete(&existing).Error
		default:
			action = "updated"
			return tx.Model(&existing).Update("type", reaction).Error
		}
	})
	if err != nil {
		return nil, err
	}

	if action == "added" || action == "updated" {
		if nerr := s.notifications.Create(post.UserID, userID, reaction, &postID); nerr != nil {
			utils.Sugar.Errorw("reaction notification failed",
				"post_id", postID, "actor_id", userID, "error", nerr)
		}
	}
	return s.toggleResult(action, postID, userID)
}

// ToggleRepost adds or removes a repost for the viewer.
func (s *PostService) ToggleRepost(postID, userID uint) (*ToggleResult, error) {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !post.IsLive(time.Now()) {
		return nil, ErrNotFound
	}
	if post.UserID == userID {
		return nil, ErrSelfAction
	}

	repost := models.PostRepost{PostID: postID, UserID: userID}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&repost)
	if res.Error != nil {
		return nil, res.Error
	}

	var action string
	if res.RowsAffected > 0 {
		action = "added"
		if nerr := s.notifications.Create(post.UserID, userID, models.NotificationRepost, &postID); nerr != nil {
			utils.Sugar.Errorw("repost notification failed",
				"post_id", postID, "actor_id", userID, "error", nerr)
		}
	} else {
		action = "removed"
		if err := s.db.Where("post_id = ? AND user_id = ?", postID, userID).
			Delete(&models.PostRepost{}).Error; err != nil {
			return nil, err
		}
	}
	return s.toggleResult(action, postID, userID)
}

// Search finds live posts whose content matches the query.
func (s *PostService) Search(query string, viewerID uint, limit, offset int) (*PostList, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", ErrValidation)
	}
	limit, offset = normalizePage(limit, offset)

	base := s.db.Model(&models.Post{}).
		Where("is_draft = ? AND published_at IS NOT NULL AND published_at <= ?", false, time.Now()).
		Where(`content LIKE ? ESCAPE '\'`, "%"+escapeLike(query)+"%")

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var posts []models.Post
	if err := base.Order("published_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	items, err := s.buildViews(posts, viewerID)
	if err != nil {
		return nil, err
	}
	return &PostList{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// Analytics returns the engagement breakdown of an owned post.
func (s *PostService) Analytics(postID, userID uint) (*PostAnalytics, error) {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}

	counts, err := s.engagement.Counts(postID)
	if err != nil {
		return nil, err
	}

	var followers int64
	if err := s.db.Model(&models.Follower{}).
		Where("followed_user_id = ?", post.UserID).
		Count(&followers).Error; err != nil {
		return nil, err
	}

	rate := 0.0
	if followers > 0 {
		rate = float64(counts.Likes+counts.Reposts) / float64(followers) * 100
		rate = math.Round(rate*100) / 100
	}
	return &PostAnalytics{
		PostID:          postID,
		Likes:           counts.Likes,
		Dislikes:        counts.Dislikes,
		Reposts:         counts.Reposts,
		TotalEngagement: counts.Likes + counts.Reposts,
		EngagementRate:  rate,
		NetSentiment:    counts.Likes - counts.Dislikes,
		Followers:       followers,
	}, nil
}

// notifyFollowers writes a new_post notification for every follower of
// the author, in batches of 50 with concurrent writes inside a batch.
// Failures are logged and swallowed so publishing never depends on them.
func (s *PostService) notifyFollowers(authorID, postID uint) {
	var followerIDs []uint
	if err := s.db.Model(&models.Follower{}).
		Where("followed_user_id = ?", authorID).
		Pluck("follower_user_id", &followerIDs).Error; err != nil {
		utils.Sugar.Errorw("fan-out follower lookup failed",
			"author_id", authorID, "post_id", postID, "error", err)
		return
	}

	for start := 0; start < len(followerIDs); start += fanOutBatchSize {
		end := start + fanOutBatchSize
		if end > len(followerIDs) {
			end = len(followerIDs)
		}
		var wg sync.WaitGroup
		for _, fid := range followerIDs[start:end] {
			wg.Add(1)
			go func(recipient uint) {
				defer wg.Done()
				notif := models.Notification{
					UserID:  recipient,
					ActorID: authorID,
					Type:    models.NotificationNewPost,
					PostID:  &postID,
				}
				if err := s.db.Create(&notif).Error; err != nil {
					utils.Sugar.Errorw("fan-out notification failed",
						"recipient_id", recipient, "post_id", postID, "error", err)
				}
			}(fid)
		}
		wg.Wait()
	}
}

func (s *PostService) notifyReply(post *models.Post) {
	var parent models.Post
	if err := s.db.First(&parent, *post.ParentPostID).Error; err != nil {
		utils.Sugar.Errorw("reply parent lookup failed",
			"post_id", post.ID, "parent_id", *post.ParentPostID, "error", err)
		return
	}
	if err := s.notifications.Create(parent.UserID, post.UserID, models.NotificationReply, &post.ID); err != nil {
		utils.Sugar.Errorw("reply notification failed",
			"post_id", post.ID, "parent_id", parent.ID, "error", err)
	}
}

func (s *PostService) toggleResult(action string, postID, userID uint) (*ToggleResult, error) {
	counts, err := s.engagement.Counts(postID)
	if err != nil {
		return nil, err
	}
	viewer, err := s.engagement.ViewerState(postID, userID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Action: action, Engagement: counts, Viewer: viewer}, nil
}

// buildViews enriches posts with authors, counts and viewer state using
// a fixed number of queries independent of len(posts).
func (s *PostService) buildViews(posts []models.Post, viewerID uint) ([]PostView, error) {
	if len(posts) == 0 {
		return []PostView{}, nil
	}
	postIDs := make([]uint, 0, len(posts))
	authorIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.UserID)
	}

	counts, err := s.engagement.batchCounts(postIDs)
	if err != nil {
		return nil, err
	}
	states, err := s.engagement.BatchViewerState(postIDs, viewerID)
	if err != nil {
		return nil, err
	}
	authors, err := s.authorSummaries(authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, PostView{
			Post:       p,
			Author:     authors[p.UserID],
			Engagement: counts[p.ID],
			Viewer:     states[p.ID],
			IsOwner:    viewerID != 0 && p.UserID == viewerID,
		})
	}
	return views, nil
}

func (s *PostService) authorSummaries(userIDs []uint) (map[uint]models.UserSummary, error) {
	var users []models.User
	if err := s.db.Where("id IN ?", utils.UniqueUint(userIDs)).Find(&users).Error; err != nil {
		return nil, err
	}
	summaries := make(map[uint]models.UserSummary, len(users))
	for _, u := range users {
		summaries[u.ID] = u.Summary()
	}
	return summaries, nil
}

func validateContent(content string, mediaURL *string) error {
	if content == "" && (mediaURL == nil || *mediaURL == "") {
		return fmt.Errorf("content required: %w", ErrValidation)
	}
	if utf8.RuneCountInString(content) > maxPostContentLen {
		return fmt.Errorf("content exceeds %d characters: %w", maxPostContentLen, ErrValidation)
	}
	return nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// escapeLike neutralizes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
