package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"landlord-service/internal/config"
	"landlord-service/internal/model"
	pkgAuth "landlord-service/pkg/auth"
	appErr "landlord-service/pkg/errors"
	"landlord-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minNicknameLen = 2
	maxNicknameLen = 24
)

type Service struct {
	db  *gorm.DB
	rdb *redis.Client
}

type LoginResult struct {
	Token    string     `json:"token"`
	ExpireAt time.Time  `json:"expireAt"`
	User     model.User `json:"user"`
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{db: db, rdb: rdb}
}

// GuestLogin creates a player account for a nickname and issues a token.
// The session marker in redis lets ops see who is online without decoding
// tokens.
func (s *Service) GuestLogin(ctx context.Context, nickname string) (*LoginResult, error) {
	nickname = strings.TrimSpace(nickname)
	if len(nickname) < minNicknameLen || len(nickname) > maxNicknameLen {
		return nil, appErr.ErrInvalidNickname
	}

	user := model.User{
		Nickname: nickname,
		Status:   "normal",
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	token, err := pkgAuth.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour
	if err := s.rdb.Set(ctx, buildSessionKey(user.ID), nickname, ttl).Err(); err != nil {
		return nil, err
	}

	logger.Log.Info("guest login",
		zap.Int64("userID", user.ID),
		zap.String("nickname", nickname),
	)

	return &LoginResult{
		Token:    token,
		ExpireAt: time.Now().Add(ttl),
		User:     user,
	}, nil
}

// Authorize resolves a token into an active user. Used by the ws upgrade
// path, which cannot rely on the gin middleware alone because tokens also
// arrive as a query parameter there.
func (s *Service) Authorize(ctx context.Context, token string) (*model.User, error) {
	claims, err := pkgAuth.ParseToken(token)
	if err != nil {
		return nil, appErr.ErrUnauthorized
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrUserNotFound
		}
		return nil, err
	}
	if strings.EqualFold(user.Status, "banned") {
		return nil, appErr.ErrUserBanned
	}
	return &user, nil
}

func buildSessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}
