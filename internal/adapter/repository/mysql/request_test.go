package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	requestDomain "nftlend-backend/internal/domain/request"
)

const (
	testBorrower = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testLender   = "cccccccccccccccccccccccccccccccc"
	testLedger   = "ffffffffffffffffffffffffffffffff"
)

// openLedgerDB creates an in-memory sqlite DB with the full ledger schema.
// The schema carries no mysql-only column types, so the production migration
// runs as-is; lockForUpdate recognises the sqlite dialector and skips the
// FOR UPDATE clause sqlite does not speak.
func openLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func makeRequest(id uint64, borrower string) *requestDomain.Request {
	return &requestDomain.Request{
		ID:                  id,
		Borrower:            borrower,
		Principal:           decimal.NewFromInt(1_000_000),
		DurationDays:        30,
		InterestRatePercent: 5,
		CollateralID:        "nft-0001",
		CreatedAt:           time.Now().UTC().Unix(),
		Status:              requestDomain.StatusActive,
	}
}

func TestRequestRepository_CreateAndGet(t *testing.T) {
	db := openLedgerDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, makeRequest(0, testBorrower)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, 0)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Borrower != testBorrower || got.Status != requestDomain.StatusActive {
		t.Errorf("unexpected request: %+v", got)
	}
	if !got.Principal.Equal(decimal.NewFromInt(1_000_000)) {
		t.Errorf("principal round-trip: %s", got.Principal)
	}

	if _, err := repo.GetByID(ctx, 42); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRequestRepository_ZeroIDIsARealRow(t *testing.T) {
	db := openLedgerDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	// id 0 is the first assigned id, not a gorm zero-value placeholder
	if err := repo.Create(ctx, makeRequest(0, testBorrower)); err != nil {
		t.Fatalf("Create id 0: %v", err)
	}
	got, err := repo.GetByID(ctx, 0)
	if err != nil {
		t.Fatalf("GetByID(0): %v", err)
	}
	if got.ID != 0 {
		t.Fatalf("id = %d", got.ID)
	}
}

func TestRequestRepository_SaveUpdatesStatus(t *testing.T) {
	db := openLedgerDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, makeRequest(3, testBorrower)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	req, err := repo.GetByIDForUpdate(ctx, 3)
	if err != nil {
		t.Fatalf("GetByIDForUpdate: %v", err)
	}
	req.Status = requestDomain.StatusCancelled
	if err := repo.Save(ctx, req); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByID(ctx, 3)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != requestDomain.StatusCancelled {
		t.Errorf("status not updated, got %s", got.Status)
	}
}

func TestRequestRepository_Lists(t *testing.T) {
	db := openLedgerDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	other := "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	// insert out of id order to prove ordering comes from the query
	for _, r := range []*requestDomain.Request{
		makeRequest(2, testBorrower),
		makeRequest(0, testBorrower),
		makeRequest(1, other),
	} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create %d: %v", r.ID, err)
		}
	}

	mine, err := repo.ListByBorrower(ctx, testBorrower)
	if err != nil {
		t.Fatalf("ListByBorrower: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != 0 || mine[1].ID != 2 {
		t.Fatalf("borrower list = %+v", mine)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d", len(all))
	}
	for i, r := range all {
		if r.ID != uint64(i) {
			t.Fatalf("all not id-ascending: %+v", all)
		}
	}
}
