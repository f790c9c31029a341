package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	requestDomain "nftlend-backend/internal/domain/request"
)

// saveAssigned persists a record whose primary key the ledger assigned
// itself. gorm's Save treats a zero primary key as "new record", and id 0 is
// a real row here, so updates go through an explicit upsert instead.
func saveAssigned(db *gorm.DB, record any) error {
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(record).Error
}

type RequestRepository struct{ db *gorm.DB }

func NewRequestRepository(db *gorm.DB) *RequestRepository { return &RequestRepository{db: db} }

func (r *RequestRepository) Create(ctx context.Context, req *requestDomain.Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) Save(ctx context.Context, req *requestDomain.Request) error {
	return saveAssigned(r.db.WithContext(ctx), req)
}

func (r *RequestRepository) GetByID(ctx context.Context, id uint64) (*requestDomain.Request, error) {
	var out requestDomain.Request
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *RequestRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*requestDomain.Request, error) {
	var out requestDomain.Request
	res := lockForUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *RequestRepository) ListByBorrower(ctx context.Context, borrower string) ([]requestDomain.Request, error) {
	var out []requestDomain.Request
	res := r.db.WithContext(ctx).
		Where("borrower = ?", borrower).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *RequestRepository) ListAll(ctx context.Context) ([]requestDomain.Request, error) {
	var out []requestDomain.Request
	res := r.db.WithContext(ctx).Order("id ASC").Find(&out)
	return out, res.Error
}

// lockForUpdate adds SELECT ... FOR UPDATE on engines that support it.
// sqlite (tests) has no row locks; its transactions already serialize
// writers.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
