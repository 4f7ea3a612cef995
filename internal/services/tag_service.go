package services

import (
	"context"
	"errors"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
)

// TagService provides read access to tags and staff-side creation
type TagService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTagByID(ctx context.Context, id uint) (*models.Tag, error)
	CreateTag(ctx context.Context, name, slug string) (*models.Tag, error)
}

type tagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) TagService {
	return &tagService{db: db}
}

func (s *tagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *tagService) GetTagByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, notFound(err, "tag not found")
	}
	return &tag, nil
}

func (s *tagService) CreateTag(ctx context.Context, name, slug string) (*models.Tag, error) {
	tag := &models.Tag{Name: strings.TrimSpace(name), Slug: strings.TrimSpace(slug)}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fieldError("name", "Tag with this name or slug already exists.")
		}
		return nil, err
	}
	log.WithField("tag_id", tag.ID).Info("Tag created")
	return tag, nil
}
