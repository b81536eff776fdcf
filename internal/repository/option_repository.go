package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	customerrors "github.com/axellelanca/trackit/internal/errors"
	"github.com/axellelanca/trackit/internal/models"
)

// OptionRepository is a key/value settings store.
type OptionRepository interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, names ...string) error
}

// GormOptionRepository implements OptionRepository with gorm.
type GormOptionRepository struct {
	db *gorm.DB
}

// NewOptionRepository creates a GormOptionRepository.
func NewOptionRepository(db *gorm.DB) *GormOptionRepository {
	return &GormOptionRepository{db: db}
}

// Get returns the value of name and whether it exists.
func (r *GormOptionRepository) Get(ctx context.Context, name string) (string, bool, error) {
	var opt models.Option
	res := r.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&opt)
	if res.Error != nil {
		return "", false, customerrors.NewStorageError("get_option", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", false, nil
	}
	return opt.Value, true, nil
}

// Set inserts or replaces the value of name.
func (r *GormOptionRepository) Set(ctx context.Context, name, value string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&models.Option{Name: name, Value: value}).Error
	return customerrors.NewStorageError("set_option", err)
}

// Delete removes the named options. Missing names are ignored.
func (r *GormOptionRepository) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Where("name IN ?", names).Delete(&models.Option{}).Error
	return customerrors.NewStorageError("delete_option", err)
}
