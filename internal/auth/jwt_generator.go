package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidToken = errors.New("invalid access token")

// JWTAccessGenerate generates JWT access tokens with custom claims including UserID and Role
type JWTAccessGenerate struct {
	SignedKey    []byte
	SignedMethod jwt.SigningMethod
	DB           *gorm.DB // Database connection to fetch user information
}

// NewJWTAccessGenerate creates a new JWT access token generator
func NewJWTAccessGenerate(key []byte, method jwt.SigningMethod, db *gorm.DB) *JWTAccessGenerate {
	return &JWTAccessGenerate{
		SignedKey:    key,
		SignedMethod: method,
		DB:           db,
	}
}

// Token generates a JWT access token with custom claims
// This method is called by the OAuth2 library to generate access tokens
func (g *JWTAccessGenerate) Token(ctx context.Context, data *oauth2.GenerateBasic, isGenRefresh bool) (string, string, error) {
	// For client_credentials the user comes from the client record
	userID := data.UserID
	if userID == "" {
		userID = data.Client.GetUserID()
	}
	if userID == "" {
		return "", "", fmt.Errorf("cannot generate token: no user ID available")
	}

	// Role is read from the database at issue time so it cannot be requested
	role, err := g.getUserRole(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch user role: %w", err)
	}

	claims := jwt.MapClaims{
		"aud":  data.Client.GetID(),
		"exp":  data.TokenInfo.GetAccessCreateAt().Add(data.TokenInfo.GetAccessExpiresIn()).Unix(),
		"iat":  data.TokenInfo.GetAccessCreateAt().Unix(),
		"jti":  uuid.New().String(),
		"uid":  userID,
		"role": role,
	}
	if data.TokenInfo.GetScope() != "" {
		claims["scope"] = data.TokenInfo.GetScope()
	}

	access, err := jwt.NewWithClaims(g.SignedMethod, claims).SignedString(g.SignedKey)
	if err != nil {
		return "", "", err
	}

	refresh := ""
	if isGenRefresh {
		refreshClaims := jwt.MapClaims{
			"jti": uuid.New().String(),
			"exp": data.TokenInfo.GetRefreshCreateAt().Add(data.TokenInfo.GetRefreshExpiresIn()).Unix(),
		}
		refresh, err = jwt.NewWithClaims(g.SignedMethod, refreshClaims).SignedString(g.SignedKey)
		if err != nil {
			return "", "", err
		}
	}

	return access, refresh, nil
}

func (g *JWTAccessGenerate) getUserRole(ctx context.Context, userIDStr string) (string, error) {
	userID, err := strconv.ParseUint(userIDStr, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid user ID format: %w", err)
	}

	var user models.User
	if err := g.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("user with ID %d not found", userID)
		}
		return "", fmt.Errorf("database error: %w", err)
	}
	if !user.IsActive {
		return "", fmt.Errorf("user with ID %d is inactive", userID)
	}
	return user.Role(), nil
}

// Claims are the fields read back from an access token.
type Claims struct {
	UserID string
	Role   string
	Scope  string
}

// Actor converts the claims into the caller of an operation.
func (c *Claims) Actor() (*models.Actor, error) {
	id, err := strconv.ParseUint(c.UserID, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrInvalidToken
	}
	return &models.Actor{UserID: uint(id), Role: c.Role}, nil
}

// ParseAccessToken verifies an HMAC-signed access token and extracts its claims.
func ParseAccessToken(key []byte, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	uid, _ := mapClaims["uid"].(string)
	role, _ := mapClaims["role"].(string)
	if uid == "" || role == "" {
		return nil, ErrInvalidToken
	}
	scope, _ := mapClaims["scope"].(string)

	return &Claims{UserID: uid, Role: role, Scope: scope}, nil
}
