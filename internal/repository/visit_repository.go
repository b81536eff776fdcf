package repository

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	customerrors "github.com/axellelanca/trackit/internal/errors"
	"github.com/axellelanca/trackit/internal/models"
	"github.com/axellelanca/trackit/internal/tracking"
)

// VisitStore is the append-only store of visit events.
// Every error it returns is a *customerrors.StorageError.
type VisitStore interface {
	Insert(ctx context.Context, sourceURL, customElement string) (uint64, error)
	CountSince(ctx context.Context, window time.Duration) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	Page(ctx context.Context, pageNumber, pageSize int) ([]models.Visit, int64, error)
	DeleteAll(ctx context.Context) error
	Drop(ctx context.Context) error
}

// GormVisitRepository implements VisitStore on top of gorm (sqlite or postgres).
type GormVisitRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewVisitRepository creates a GormVisitRepository.
func NewVisitRepository(db *gorm.DB) *GormVisitRepository {
	return &GormVisitRepository{db: db, now: time.Now}
}

// WithClock replaces the time source used for insert timestamps and rolling windows.
func (r *GormVisitRepository) WithClock(now func() time.Time) *GormVisitRepository {
	r.now = now
	return r
}

func (r *GormVisitRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Second)
}

// Insert appends a visit. Values longer than their column are truncated.
func (r *GormVisitRepository) Insert(ctx context.Context, sourceURL, customElement string) (uint64, error) {
	visit := &models.Visit{
		VisitedAt:           r.timestamp(),
		SourceURL:           tracking.Truncate(sourceURL, tracking.MaxSourceURLLength),
		SourceCustomElement: tracking.Truncate(customElement, tracking.MaxCustomElementLength),
	}
	if err := r.db.WithContext(ctx).Create(visit).Error; err != nil {
		return 0, customerrors.NewStorageError("insert", err)
	}
	return visit.ID, nil
}

// CountSince counts visits strictly newer than now minus window.
func (r *GormVisitRepository) CountSince(ctx context.Context, window time.Duration) (int64, error) {
	since := r.timestamp().Add(-window)
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Visit{}).Where("visited_at > ?", since).Count(&count).Error
	if err != nil {
		return 0, customerrors.NewStorageError("count_since", err)
	}
	return count, nil
}

// CountAll counts every stored visit.
func (r *GormVisitRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Visit{}).Count(&count).Error; err != nil {
		return 0, customerrors.NewStorageError("count_all", err)
	}
	return count, nil
}

// Page returns the 1-based pageNumber of visits, newest first, and the total row count.
// A page past the end yields an empty slice.
func (r *GormVisitRepository) Page(ctx context.Context, pageNumber, pageSize int) ([]models.Visit, int64, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	total, err := r.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	visits := []models.Visit{}
	// Pages past the end, including ones whose offset would overflow int, hold no rows.
	if pageSize <= 0 || pageNumber-1 > (math.MaxInt-1)/pageSize {
		return visits, total, nil
	}
	offset := pageSize * (pageNumber - 1)
	if int64(offset) >= total {
		return visits, total, nil
	}

	err = r.db.WithContext(ctx).
		Order("id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&visits).Error
	if err != nil {
		return nil, 0, customerrors.NewStorageError("page", err)
	}
	return visits, total, nil
}

// DeleteAll removes every visit and resets the id sequence so the next insert gets id 1.
func (r *GormVisitRepository) DeleteAll(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	var err error
	if db.Dialector.Name() == "postgres" {
		err = db.Exec("TRUNCATE TABLE " + models.VisitTableName + " RESTART IDENTITY").Error
	} else {
		err = db.Transaction(resetSQLiteTable)
	}
	return customerrors.NewStorageError("delete_all", err)
}

// resetSQLiteTable deletes all rows and the AUTOINCREMENT counter inside one transaction.
// sqlite_sequence only exists once some table has used AUTOINCREMENT.
func resetSQLiteTable(tx *gorm.DB) error {
	if err := tx.Exec("DELETE FROM " + models.VisitTableName).Error; err != nil {
		return err
	}
	var sequences int64
	err := tx.Raw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'").
		Scan(&sequences).Error
	if err != nil {
		return err
	}
	if sequences == 0 {
		return nil
	}
	return tx.Exec("DELETE FROM sqlite_sequence WHERE name = ?", models.VisitTableName).Error
}

// Drop removes the visit table. Dropping an already dropped table is a no-op.
func (r *GormVisitRepository) Drop(ctx context.Context) error {
	err := r.db.WithContext(ctx).Migrator().DropTable(&models.Visit{})
	return customerrors.NewStorageError("drop", err)
}
