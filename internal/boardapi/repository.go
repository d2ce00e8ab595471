package boardapi

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BoardRepository interface {
	Create(ctx context.Context, ownerID uint64, b *Board) error
	FindByID(ctx context.Context, id string) (*Board, error)
	ListByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]Board, BoardsMeta, error)
	ReplaceObjects(ctx context.Context, boardID string, rows []BoardObject) error
	UpdateSettings(ctx context.Context, b *Board) error
	Delete(ctx context.Context, id string) error
}

type BoardRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new board repository
func NewRepository(db *gorm.DB) BoardRepository {
	return &BoardRepositoryImpl{db: db}
}

func (r *BoardRepositoryImpl) Create(ctx context.Context, ownerID uint64, b *Board) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.OwnerID = ownerID
	b.CreatedAt = time.Now().UTC() // Use UTC for consistency
	b.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(b).Error
}

type BoardsMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

func (r *BoardRepositoryImpl) ListByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]Board, BoardsMeta, error) {
	var boards []Board
	var totalRecords int64

	// Count total records
	if err := r.db.WithContext(ctx).Model(&Board{}).Where("owner_id = ?", ownerID).Count(&totalRecords).Error; err != nil {
		return boards, BoardsMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&boards).Error

	totalPages := int((totalRecords + int64(pageSize) - 1) / int64(pageSize))

	return boards, BoardsMeta{
		Total:       totalRecords,
		PerPage:     pageSize,
		TotalPage:   totalPages,
		CurrentPage: page,
	}, err
}

func (r *BoardRepositoryImpl) FindByID(ctx context.Context, id string) (*Board, error) {
	var b Board
	err := r.db.WithContext(ctx).
		Preload("Objects", func(db *gorm.DB) *gorm.DB {
			return db.Order("z_index ASC")
		}).
		First(&b, "id = ?", id).Error
	return &b, err
}

// ReplaceObjects makes the stored object set match the given one: rows are
// upserted by object id and rows missing from the list are deleted.
// Writing the same state twice leaves the same stored result.
func (r *BoardRepositoryImpl) ReplaceObjects(ctx context.Context, boardID string, rows []BoardObject) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		keep := make([]string, 0, len(rows))
		for i := range rows {
			rows[i].BoardID = boardID
			keep = append(keep, rows[i].ID)
		}

		if len(rows) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&rows).Error; err != nil {
				return err
			}
		}

		del := tx.Where("board_id = ?", boardID)
		if len(keep) > 0 {
			del = del.Where("id NOT IN ?", keep)
		}
		if err := del.Delete(&BoardObject{}).Error; err != nil {
			return err
		}

		return tx.Model(&Board{}).
			Where("id = ?", boardID).
			Update("updated_at", now).Error
	})
}

func (r *BoardRepositoryImpl) UpdateSettings(ctx context.Context, b *Board) error {
	return r.db.WithContext(ctx).Model(&Board{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"theme":         b.Theme,
			"background":    b.Background,
			"canvas_width":  b.CanvasWidth,
			"canvas_height": b.CanvasHeight,
			"grid_visible":  b.GridVisible,
			"grid_size":     b.GridSize,
			"snap_to_grid":  b.SnapToGrid,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *BoardRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("board_id = ?", id).Delete(&BoardObject{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Board{}, "id = ?", id).Error
	})
}
