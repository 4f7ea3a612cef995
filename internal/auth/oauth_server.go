package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/go-oauth2/oauth2/v4"
	oauth2errors "github.com/go-oauth2/oauth2/v4/errors"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Config holds what the token server needs besides storage.
type Config struct {
	JWTSecret    string
	ClientID     string
	ClientSecret string
	TokenTTL     time.Duration
}

// OAuthService issues and revokes access tokens. Tokens are JWTs that are
// also persisted, so deleting the row revokes the token.
type OAuthService struct {
	server  *server.Server
	manager *manage.Manager
	db      *gorm.DB
	cfg     Config
}

func NewOAuthService(db *gorm.DB, users services.UserService, cfg Config) *OAuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	manager := manage.NewDefaultManager()

	// Use JWT for access tokens
	manager.MapAccessGenerate(NewJWTAccessGenerate([]byte(cfg.JWTSecret), jwt.SigningMethodHS512, db))

	tokenCfg := &manage.Config{
		AccessTokenExp:    cfg.TokenTTL,
		RefreshTokenExp:   7 * cfg.TokenTTL,
		IsGenerateRefresh: true,
	}
	manager.SetPasswordTokenCfg(tokenCfg)
	manager.SetClientTokenCfg(&manage.Config{AccessTokenExp: cfg.TokenTTL})
	manager.SetRefreshTokenCfg(&manage.RefreshingConfig{
		AccessTokenExp:     cfg.TokenTTL,
		RefreshTokenExp:    7 * cfg.TokenTTL,
		IsGenerateRefresh:  true,
		IsRemoveAccess:     true,
		IsRemoveRefreshing: true,
	})

	manager.MustTokenStorage(NewGormTokenStore(db), nil)
	manager.MapClientStorage(NewGormClientStore(db))

	srv := server.NewDefaultServer(manager)
	srv.SetClientInfoHandler(server.ClientFormHandler)
	srv.SetAllowedGrantType(oauth2.PasswordCredentials, oauth2.Refreshing, oauth2.ClientCredentials)
	srv.SetPasswordAuthorizationHandler(func(ctx context.Context, clientID, username, password string) (string, error) {
		user, err := users.Authenticate(ctx, username, password)
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				return "", oauth2errors.ErrInvalidGrant
			}
			return "", err
		}
		return strconv.FormatUint(uint64(user.ID), 10), nil
	})
	srv.SetInternalErrorHandler(func(err error) *oauth2errors.Response {
		log.WithError(err).Error("OAuth2 internal error")
		return nil
	})

	return &OAuthService{
		server:  srv,
		manager: manager,
		db:      db,
		cfg:     cfg,
	}
}

func (o *OAuthService) GetServer() *server.Server {
	return o.server
}

// IssueToken creates an access token for an already authenticated user
// through the first-party client.
func (o *OAuthService) IssueToken(ctx context.Context, user *models.User) (oauth2.TokenInfo, error) {
	ti, err := o.manager.GenerateAccessToken(ctx, oauth2.PasswordCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     o.cfg.ClientID,
		ClientSecret: o.cfg.ClientSecret,
		UserID:       strconv.FormatUint(uint64(user.ID), 10),
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	log.WithFields(logrus.Fields{"user_id": user.ID, "client_id": o.cfg.ClientID}).Info("Access token issued")
	return ti, nil
}

// RevokeToken deletes the stored access token so it no longer authenticates.
func (o *OAuthService) RevokeToken(ctx context.Context, access string) error {
	if err := o.manager.RemoveAccessToken(ctx, access); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// ValidateToken checks the signature and claims of access and that it has not
// been revoked or expired, and returns the caller it identifies.
func (o *OAuthService) ValidateToken(ctx context.Context, access string) (*models.Actor, error) {
	claims, err := ParseAccessToken([]byte(o.cfg.JWTSecret), access)
	if err != nil {
		return nil, err
	}
	ti, err := o.manager.LoadAccessToken(ctx, access)
	if err != nil {
		return nil, err
	}
	if ti == nil {
		return nil, oauth2errors.ErrInvalidAccessToken
	}
	actor, err := claims.Actor()
	if err != nil {
		return nil, err
	}

	// The role claim is a snapshot; privileges follow the account as it is now.
	var user models.User
	err = o.db.WithContext(ctx).Select("id", "is_staff", "is_superuser", "is_active").First(&user, actor.UserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return models.NewActor(&user), nil
}
