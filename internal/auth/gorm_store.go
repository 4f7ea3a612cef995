package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	internalmodels "github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/models"
	"gorm.io/gorm"
)

type GormClientStore struct {
	db *gorm.DB
}

func NewGormClientStore(db *gorm.DB) *GormClientStore {
	return &GormClientStore{db: db}
}

func (s *GormClientStore) GetByID(ctx context.Context, id string) (oauth2.ClientInfo, error) {
	var client internalmodels.OAuthClient
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, err
	}

	// OAuthClient implements ClientPasswordVerifier, so secrets are compared as bcrypt hashes
	return &client, nil
}

// GormTokenStore persists issued tokens. Authorization codes are not
// supported; only password, refresh and client credentials grants are enabled.
type GormTokenStore struct {
	db *gorm.DB
}

func NewGormTokenStore(db *gorm.DB) *GormTokenStore {
	return &GormTokenStore{db: db}
}

func (s *GormTokenStore) Create(ctx context.Context, info oauth2.TokenInfo) error {
	token := &internalmodels.OAuthToken{
		ClientID:        info.GetClientID(),
		AccessToken:     info.GetAccess(),
		Scopes:          info.GetScope(),
		AccessCreatedAt: info.GetAccessCreateAt(),
		ExpiresAt:       info.GetAccessCreateAt().Add(info.GetAccessExpiresIn()),
	}

	if uid := info.GetUserID(); uid != "" {
		id, err := strconv.ParseUint(uid, 10, 64)
		if err != nil {
			return err
		}
		userID := uint(id)
		token.UserID = &userID
	}

	if refresh := info.GetRefresh(); refresh != "" {
		token.RefreshToken = &refresh
		if exp := info.GetRefreshExpiresIn(); exp > 0 {
			refreshExpires := info.GetRefreshCreateAt().Add(exp)
			token.RefreshExpires = &refreshExpires
		}
	}

	return s.db.WithContext(ctx).Omit("User").Create(token).Error
}

func (s *GormTokenStore) RemoveByAccess(ctx context.Context, access string) error {
	return s.db.WithContext(ctx).Where("access_token = ?", access).Delete(&internalmodels.OAuthToken{}).Error
}

func (s *GormTokenStore) RemoveByRefresh(ctx context.Context, refresh string) error {
	return s.db.WithContext(ctx).Where("refresh_token = ?", refresh).Delete(&internalmodels.OAuthToken{}).Error
}

func (s *GormTokenStore) RemoveByCode(ctx context.Context, code string) error {
	return nil
}

// GetByAccess returns nil, nil for an unknown token so the manager reports
// invalid_token instead of an internal error.
func (s *GormTokenStore) GetByAccess(ctx context.Context, access string) (oauth2.TokenInfo, error) {
	return s.find(ctx, "access_token = ?", access)
}

func (s *GormTokenStore) GetByRefresh(ctx context.Context, refresh string) (oauth2.TokenInfo, error) {
	return s.find(ctx, "refresh_token = ?", refresh)
}

func (s *GormTokenStore) GetByCode(ctx context.Context, code string) (oauth2.TokenInfo, error) {
	return nil, nil
}

func (s *GormTokenStore) find(ctx context.Context, query string, value string) (oauth2.TokenInfo, error) {
	var token internalmodels.OAuthToken
	if err := s.db.WithContext(ctx).Where(query, value).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toTokenInfo(&token), nil
}

func toTokenInfo(token *internalmodels.OAuthToken) oauth2.TokenInfo {
	ti := &models.Token{
		ClientID:        token.ClientID,
		Access:          token.AccessToken,
		AccessCreateAt:  token.AccessCreatedAt,
		AccessExpiresIn: token.ExpiresAt.Sub(token.AccessCreatedAt),
		Scope:           token.Scopes,
	}
	if token.UserID != nil {
		ti.UserID = strconv.FormatUint(uint64(*token.UserID), 10)
	}
	if token.RefreshToken != nil {
		ti.Refresh = *token.RefreshToken
		ti.RefreshCreateAt = token.AccessCreatedAt
		if token.RefreshExpires != nil {
			ti.RefreshExpiresIn = token.RefreshExpires.Sub(token.AccessCreatedAt)
		}
	}
	return ti
}

// PurgeExpired deletes tokens whose access and refresh lifetimes have both ended.
func (s *GormTokenStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ? AND (refresh_expires IS NULL OR refresh_expires < ?)", now, now).
		Delete(&internalmodels.OAuthToken{})
	return result.RowsAffected, result.Error
}
