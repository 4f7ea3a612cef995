package services

import (
	"context"
	"errors"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// FirstPartyGrantTypes are the grants the web frontend client may use.
const FirstPartyGrantTypes = "password refresh_token"

// ServiceGrantTypes are the grants issued to clients created through the API.
const ServiceGrantTypes = "client_credentials"

var allowedGrantTypes = map[string]bool{
	"password":           true,
	"refresh_token":      true,
	"client_credentials": true,
}

// ClientInput describes a confidential client to register.
type ClientInput struct {
	Name       string
	Domain     string
	Scopes     string
	GrantTypes string
}

type ClientService interface {
	// EnsureClient creates the client when missing and resets its secret
	// when the stored hash no longer matches secret. An empty secret makes
	// the client public.
	EnsureClient(ctx context.Context, id, secret, name string) (*models.OAuthClient, error)
	// CreateClient registers a confidential client owned by actor and
	// returns it together with the plain secret, which is not stored.
	CreateClient(ctx context.Context, actor *models.Actor, in ClientInput) (*models.OAuthClient, string, error)
	ListClients(ctx context.Context, actor *models.Actor) ([]models.OAuthClient, error)
	GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error)
	DeleteClient(ctx context.Context, id string) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func (s *clientService) EnsureClient(ctx context.Context, id, secret, name string) (*models.OAuthClient, error) {
	db := s.db.WithContext(ctx)

	client, err := s.GetClientByID(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash := ""
	if secret != "" && (client == nil || !client.VerifyPassword(secret) || client.IsPublic()) {
		b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(b)
	}

	if client == nil {
		client = &models.OAuthClient{
			ID:         id,
			Secret:     hash,
			Name:       name,
			Scopes:     "read write",
			GrantTypes: FirstPartyGrantTypes,
		}
		if err := db.Create(client).Error; err != nil {
			return nil, err
		}
		log.WithField("client_id", id).Info("OAuth client created")
		return client, nil
	}

	switch {
	case hash != "":
		client.Secret = hash
	case secret == "" && !client.IsPublic():
		client.Secret = ""
	default:
		return client, nil
	}
	if err := db.Model(client).Update("secret", client.Secret).Error; err != nil {
		return nil, err
	}
	log.WithField("client_id", id).Info("OAuth client secret updated")
	return client, nil
}

func (s *clientService) CreateClient(ctx context.Context, actor *models.Actor, in ClientInput) (*models.OAuthClient, string, error) {
	if actor == nil {
		return nil, "", ErrNotAuthenticated
	}

	verr := &ValidationError{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		verr.Add("name", "This field may not be blank.")
	}
	grants := strings.Fields(in.GrantTypes)
	if len(grants) == 0 {
		grants = strings.Fields(ServiceGrantTypes)
	}
	for _, g := range grants {
		if !allowedGrantTypes[g] {
			verr.Add("grant_types", "Unsupported grant type \""+g+"\".")
		}
	}
	if err := verr.Err(); err != nil {
		return nil, "", err
	}

	scopes := strings.Join(strings.Fields(in.Scopes), " ")
	if scopes == "" {
		scopes = "read"
	}

	secret := uuid.New().String()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	client := &models.OAuthClient{
		ID:         uuid.New().String(),
		Secret:     string(hash),
		Name:       name,
		Domain:     in.Domain,
		UserID:     actor.UserID,
		Scopes:     scopes,
		GrantTypes: strings.Join(grants, " "),
	}
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, "", err
	}
	log.WithField("client_id", client.ID).WithField("user_id", actor.UserID).Info("OAuth client registered")
	return client, secret, nil
}

func (s *clientService) ListClients(ctx context.Context, actor *models.Actor) ([]models.OAuthClient, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}
	var clients []models.OAuthClient
	err := s.db.WithContext(ctx).Where("user_id = ?", actor.UserID).Order("created_at").Find(&clients).Error
	return clients, err
}

func (s *clientService) GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, notFound(err, "client not found")
	}
	return &client, nil
}

func (s *clientService) DeleteClient(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.OAuthClient{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(ErrNotFound, "client not found")
	}
	return nil
}
