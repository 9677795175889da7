package repository

import (
	"context"

	"github.com/mr1hm/quake-explorer/internal/models"
)

type PresetRepository interface {
	Add(ctx context.Context, p *models.Preset) error
	GetByID(ctx context.Context, id string) (*models.Preset, error)
	List(ctx context.Context, limit int) ([]models.Preset, error)
	Delete(ctx context.Context, id string) (bool, error)
}
