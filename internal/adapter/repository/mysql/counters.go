package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Counter is one scalar sequence row. Two rows exist in practice: the next
// request id and the next loan id. Ids start at 0.
type Counter struct {
	Name string `gorm:"primaryKey;size:32"`
	Next uint64 `gorm:"column:next"`
}

func (Counter) TableName() string { return "ledger_counters" }

type CounterRepository struct{ db *gorm.DB }

func NewCounterRepository(db *gorm.DB) *CounterRepository { return &CounterRepository{db: db} }

// Next reserves and returns the next id for the named sequence. The row is
// locked for the enclosing transaction so two funders cannot mint the same
// loan id; on rollback the reservation is released with everything else.
func (r *CounterRepository) Next(ctx context.Context, name string) (uint64, error) {
	var c Counter
	res := lockForUpdate(r.db.WithContext(ctx)).Where("name = ?", name).First(&c)
	if res.Error != nil {
		if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return 0, res.Error
		}
		c = Counter{Name: name, Next: 0}
		if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
			return 0, err
		}
	}
	id := c.Next
	c.Next++
	if err := r.db.WithContext(ctx).Save(&c).Error; err != nil {
		return 0, err
	}
	return id, nil
}
