package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ripple-social/ripple/models"
	"github.com/ripple-social/ripple/utils"
)

// UserProfile is the public view of a user plus the viewer's relation
// to them.
type UserProfile struct {
	models.UserSummary
	Bio            string    `json:"bio"`
	CreatedAt      time.Time `json:"created_at"`
	PostCount      int64     `json:"post_count"`
	FollowerCount  int64     `json:"follower_count"`
	FollowingCount int64     `json:"following_count"`
	IsFollowing    bool      `json:"is_following"`
	IsCurrentUser  bool      `json:"is_current_user"`
}

// UserStats aggregates a user's activity totals.
type UserStats struct {
	Posts            int64 `json:"posts"`
	LikesReceived    int64 `json:"likes_received"`
	DislikesReceived int64 `json:"dislikes_received"`
	RepostsReceived  int64 `json:"reposts_received"`
	Followers        int64 `json:"followers"`
	Following        int64 `json:"following"`
}

type UpdateProfileInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Bio   *string `json:"bio"`
}

// mediaDeleter is the slice of MediaService that avatar replacement
// needs. Nil means old media is simply left behind.
type mediaDeleter interface {
	Delete(ctx context.Context, publicID string) error
}

type UserService struct {
	db    *gorm.DB
	media mediaDeleter
}

func NewUserService(db *gorm.DB, media mediaDeleter) *UserService {
	return &UserService{db: db, media: media}
}

// Profile resolves a user by name with counts and the viewer relation.
func (s *UserService) Profile(name string, viewerID uint) (*UserProfile, error) {
	var user models.User
	if err := s.db.Where("name = ?", name).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	profile := &UserProfile{
		UserSummary:   user.Summary(),
		Bio:           user.Bio,
		CreatedAt:     user.CreatedAt,
		IsCurrentUser: viewerID != 0 && viewerID == user.ID,
	}

	now := time.Now()
	if err := s.db.Model(&models.Post{}).
		Where("user_id = ? AND is_draft = ? AND published_at IS NOT NULL AND published_at <= ?",
			user.ID, false, now).
		Count(&profile.PostCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Follower{}).
		Where("followed_user_id = ?", user.ID).
		Count(&profile.FollowerCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Follower{}).
		Where("follower_user_id = ?", user.ID).
		Count(&profile.FollowingCount).Error; err != nil {
		return nil, err
	}

	if viewerID != 0 && viewerID != user.ID {
		var n int64
		if err := s.db.Model(&models.Follower{}).
			Where("follower_user_id = ? AND followed_user_id = ?", viewerID, user.ID).
			Count(&n).Error; err != nil {
			return nil, err
		}
		profile.IsFollowing = n > 0
	}
	return profile, nil
}

// UpdateProfile changes name, email or bio. Name and email stay unique.
func (s *UserService) UpdateProfile(userID uint, input UpdateProfileInput) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(utils.SanitizeText(*input.Name))
		if name == "" {
			return nil, ErrValidation
		}
		if name != user.Name {
			if taken, err := s.taken("name", name, userID); err != nil {
				return nil, err
			} else if taken {
				return nil, ErrConflict
			}
			user.Name = name
		}
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, ErrValidation
		}
		if email != user.Email {
			if taken, err := s.taken("email", email, userID); err != nil {
				return nil, err
			} else if taken {
				return nil, ErrConflict
			}
			user.Email = email
		}
	}
	if input.Bio != nil {
		user.Bio = utils.SanitizeText(*input.Bio)
	}

	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) taken(column, value string, excludeID uint) (bool, error) {
	var n int64
	err := s.db.Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, excludeID).
		Count(&n).Error
	return n > 0, err
}

// UpdateAvatar stores the new avatar and tries to delete the previous
// media asset. The delete is best-effort.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, url, publicID string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	oldPublicID := user.AvatarPublicID
	user.Avatar = url
	user.AvatarPublicID = publicID
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}

	if oldPublicID != "" && oldPublicID != publicID && s.media != nil {
		if err := s.media.Delete(ctx, oldPublicID); err != nil {
			utils.Sugar.Warnw("old avatar cleanup failed",
				"user_id", userID, "public_id", oldPublicID, "error", err)
		}
	}
	return &user, nil
}

// Suggested returns users the viewer does not yet follow, most followed
// first.
func (s *UserService) Suggested(viewerID uint, limit int) ([]models.UserSummary, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var users []models.User
	err := s.db.Model(&models.User{}).
		Where("users.id <> ?", viewerID).
		Where("users.id NOT IN (?)",
			s.db.Model(&models.Follower{}).
				Select("followed_user_id").
				Where("follower_user_id = ?", viewerID)).
		Order("(SELECT COUNT(*) FROM followers f WHERE f.followed_user_id = users.id) DESC, users.id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	items := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		items = append(items, u.Summary())
	}
	return items, nil
}

// SearchUsers matches names against the query.
func (s *UserService) SearchUsers(query string, limit, offset int) (*UserList, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrValidation
	}
	limit, offset = normalizePage(limit, offset)

	base := s.db.Model(&models.User{}).
		Where(`name LIKE ? ESCAPE '\'`, "%"+escapeLike(query)+"%")

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	if err := base.Order("name ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, err
	}

	items := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		items = append(items, u.Summary())
	}
	return &UserList{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// Stats aggregates activity totals for one user.
func (s *UserService) Stats(userID uint) (*UserStats, error) {
	var exists int64
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	stats := &UserStats{}
	if err := s.db.Model(&models.Post{}).
		Where("user_id = ?", userID).Count(&stats.Posts).Error; err != nil {
		return nil, err
	}

	postIDs := s.db.Model(&models.Post{}).Select("id").Where("user_id = ?", userID)
	if err := s.db.Model(&models.PostLike{}).
		Where("post_id IN (?) AND type = ?", postIDs, models.ReactionLike).
		Count(&stats.LikesReceived).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.PostLike{}).
		Where("post_id IN (?) AND type = ?", postIDs, models.ReactionDislike).
		Count(&stats.DislikesReceived).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.PostRepost{}).
		Where("post_id IN (?)", postIDs).
		Count(&stats.RepostsReceived).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Follower{}).
		Where("followed_user_id = ?", userID).Count(&stats.Followers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Follower{}).
		Where("follower_user_id = ?", userID).Count(&stats.Following).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
