package request

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nftlend-backend/internal/domain/custody"
	"nftlend-backend/internal/domain/event"
	"nftlend-backend/internal/domain/loanbook"
	domain "nftlend-backend/internal/domain/request"
	"nftlend-backend/internal/domain/uow"
	"nftlend-backend/internal/testutil/custodymock"
	"nftlend-backend/internal/testutil/loanmock"
	"nftlend-backend/internal/testutil/uowmock"
	"nftlend-backend/pkg/clock"
)

const (
	ledgerID = "ffffffffffffffffffffffffffffffff"
	borrower = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	lender   = "cccccccccccccccccccccccccccccccc"
	stranger = "dddddddddddddddddddddddddddddddd"
	itemID   = "nft-0001"
)

// memRequests is a stateful in-memory request store for scenario tests.
// Lookups report misses with gorm.ErrRecordNotFound, same as the real
// repository; getErr simulates the store itself failing.
type memRequests struct {
	rows   map[uint64]*domain.Request
	getErr error
}

func newMemRequests() *memRequests { return &memRequests{rows: map[uint64]*domain.Request{}} }

func (m *memRequests) Create(_ context.Context, r *domain.Request) error {
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *memRequests) GetByID(_ context.Context, id uint64) (*domain.Request, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRequests) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Request, error) {
	return m.GetByID(ctx, id)
}

func (m *memRequests) Save(_ context.Context, r *domain.Request) error {
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *memRequests) ListByBorrower(_ context.Context, b string) ([]domain.Request, error) {
	var out []domain.Request
	for _, r := range m.rows {
		if r.Borrower == b {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRequests) ListAll(_ context.Context) ([]domain.Request, error) {
	var out []domain.Request
	for _, r := range m.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type env struct {
	uc       *Usecase
	requests *memRequests
	loans    *loanmock.Repo
	cust     *custodymock.Custodian
	wallet   *custodymock.Wallet
	events   *uowmock.Recorder
	clk      *clock.Fixed
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		requests: newMemRequests(),
		loans:    &loanmock.Repo{},
		cust:     custodymock.NewCustodian(),
		wallet:   custodymock.NewWallet(),
		events:   &uowmock.Recorder{},
		clk:      &clock.Fixed{T: time.Unix(1_700_000_000, 0).UTC()},
	}
	u := &uowmock.UoW{Repos: uow.Repos{
		Requests: e.requests,
		Loans:    e.loans,
		Counters: uowmock.NewSeq(),
		Items:    e.cust,
		Accounts: e.wallet,
		Events:   e.events,
	}}
	e.uc = NewUsecase(e.requests, u, e.clk, ledgerID)
	return e
}

func validInput() CreateInput {
	return CreateInput{
		Borrower:            borrower,
		Principal:           decimal.NewFromInt(1_000_000),
		DurationDays:        30,
		InterestRatePercent: 5,
		CollateralID:        itemID,
	}
}

func mustCreate(t *testing.T, e *env) *RequestDTO {
	t.Helper()
	e.cust.Seed(itemID, borrower, ledgerID)
	dto, err := e.uc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return dto
}

// ----- create -----

func TestCreate_EscrowsCollateralAndAssignsSequentialIDs(t *testing.T) {
	e := newEnv(t)
	e.cust.Seed(itemID, borrower, ledgerID)
	e.cust.Seed("nft-0002", borrower, ledgerID)

	first, err := e.uc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID != 0 {
		t.Fatalf("first id = %d, want 0", first.ID)
	}
	if first.Status != string(domain.StatusActive) {
		t.Fatalf("status = %s", first.Status)
	}
	if first.CreatedAt != e.clk.Now().Unix() {
		t.Fatalf("createdAt = %d", first.CreatedAt)
	}
	if holder := e.cust.Holders[itemID]; holder != ledgerID {
		t.Fatalf("collateral holder = %s, want ledger", holder)
	}

	in := validInput()
	in.CollateralID = "nft-0002"
	second, err := e.uc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if second.ID != 1 {
		t.Fatalf("second id = %d, want 1", second.ID)
	}

	if len(e.events.Events) != 2 || e.events.Events[0].Type != event.TypeRequestCreated {
		t.Fatalf("expected two request-created events, got %+v", e.events.Events)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name   string
		mutate func(*CreateInput)
		want   error
	}{
		{"zero principal", func(in *CreateInput) { in.Principal = decimal.Zero }, domain.ErrInvalidAmount},
		{"negative principal", func(in *CreateInput) { in.Principal = decimal.NewFromInt(-5) }, domain.ErrInvalidAmount},
		{"fractional principal", func(in *CreateInput) { in.Principal = decimal.NewFromFloat(10.5) }, domain.ErrInvalidAmount},
		{"zero duration", func(in *CreateInput) { in.DurationDays = 0 }, domain.ErrInvalidDuration},
		{"zero rate", func(in *CreateInput) { in.InterestRatePercent = 0 }, domain.ErrInvalidInterestRate},
		{"rate above cap", func(in *CreateInput) { in.InterestRatePercent = domain.MaxInterestRatePercent + 1 }, domain.ErrInvalidInterestRate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := e.uc.Create(context.Background(), in); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
	if len(e.requests.rows) != 0 {
		t.Fatal("rejected creates must not persist anything")
	}
}

func TestCreate_RequiresHolderAndAuthorization(t *testing.T) {
	e := newEnv(t)
	// stranger holds the item
	e.cust.Seed(itemID, stranger, ledgerID)
	if _, err := e.uc.Create(context.Background(), validInput()); !errors.Is(err, custody.ErrNotItemHolder) {
		t.Fatalf("got %v, want ErrNotItemHolder", err)
	}

	// borrower holds it but never approved the ledger
	e.cust.Holders[itemID] = borrower
	delete(e.cust.Approvals, itemID)
	if _, err := e.uc.Create(context.Background(), validInput()); !errors.Is(err, custody.ErrItemNotAuthorized) {
		t.Fatalf("got %v, want ErrItemNotAuthorized", err)
	}

	// blanket operator grant is also acceptable
	e.cust.Operators[borrower] = map[string]bool{ledgerID: true}
	if _, err := e.uc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("blanket authorization should pass: %v", err)
	}
}

// ----- cancel -----

func TestCancel_RoundTripReturnsCollateral(t *testing.T) {
	e := newEnv(t)
	dto := mustCreate(t, e)

	out, err := e.uc.Cancel(context.Background(), dto.ID, borrower)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if out.Status != string(domain.StatusCancelled) {
		t.Fatalf("status = %s", out.Status)
	}
	if holder := e.cust.Holders[itemID]; holder != borrower {
		t.Fatalf("collateral must return to the exact borrower, held by %s", holder)
	}
	// no value changed hands
	if len(e.wallet.Balances) != 0 {
		t.Fatalf("cancel must not move value: %v", e.wallet.Balances)
	}
}

func TestCancel_Guards(t *testing.T) {
	e := newEnv(t)
	dto := mustCreate(t, e)

	if _, err := e.uc.Cancel(context.Background(), 99, borrower); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing record: got %v", err)
	}
	if _, err := e.uc.Cancel(context.Background(), dto.ID, stranger); !errors.Is(err, domain.ErrNotBorrower) {
		t.Fatalf("stranger cancel: got %v", err)
	}
	if _, err := e.uc.Cancel(context.Background(), dto.ID, borrower); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	// terminal records reject a second transition and state is unchanged
	if _, err := e.uc.Cancel(context.Background(), dto.ID, borrower); !errors.Is(err, domain.ErrNotActive) {
		t.Fatalf("second cancel: got %v", err)
	}
	if got := e.requests.rows[dto.ID].Status; got != domain.StatusCancelled {
		t.Fatalf("status moved to %s", got)
	}
}

func TestStoreFailureIsNotReportedAsNotFound(t *testing.T) {
	e := newEnv(t)
	dto := mustCreate(t, e)

	dbDown := errors.New("driver: bad connection")
	e.requests.getErr = dbDown

	if _, err := e.uc.Cancel(context.Background(), dto.ID, borrower); !errors.Is(err, dbDown) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Cancel on failing store: got %v", err)
	}
	if _, err := e.uc.Fund(context.Background(), FundInput{RequestID: dto.ID, Lender: lender, ValueSent: dto.Principal}); !errors.Is(err, dbDown) {
		t.Fatalf("Fund on failing store: got %v", err)
	}
	if _, err := e.uc.Expire(context.Background(), dto.ID, stranger); !errors.Is(err, dbDown) {
		t.Fatalf("Expire on failing store: got %v", err)
	}
	if _, err := e.uc.Get(context.Background(), dto.ID); !errors.Is(err, dbDown) {
		t.Fatalf("Get on failing store: got %v", err)
	}
}

// ----- expire -----

func TestExpire_BoundaryAndPermissionless(t *testing.T) {
	e := newEnv(t)
	dto := mustCreate(t, e)

	// at exactly createdAt + window the request is still fundable, not expirable
	e.clk.T = time.Unix(dto.CreatedAt+domain.ExpirySeconds, 0)
	if _, err := e.uc.Expire(context.Background(), dto.ID, stranger); !errors.Is(err, domain.ErrNotYetExpired) {
		t.Fatalf("expire at boundary: got %v", err)
	}

	// one second later any caller may expire, and funding is rejected
	e.clk.Advance(time.Second)
	if _, err := e.uc.Fund(context.Background(), FundInput{RequestID: dto.ID, Lender: lender, ValueSent: decimal.NewFromInt(1_000_000)}); !errors.Is(err, domain.ErrWindowExpired) {
		t.Fatalf("fund after window: got %v", err)
	}
	out, err := e.uc.Expire(context.Background(), dto.ID, stranger)
	if err != nil {
		t.Fatalf("Expire by stranger: %v", err)
	}
	if out.Status != string(domain.StatusExpired) {
		t.Fatalf("status = %s", out.Status)
	}
	if holder := e.cust.Holders[itemID]; holder != borrower {
		t.Fatalf("collateral must return to borrower, held by %s", holder)
	}

	// repeat expiry on a terminal record fails
	if _, err := e.uc.Expire(context.Background(), dto.ID, stranger); !errors.Is(err, domain.ErrNotActive) {
		t.Fatalf("second expire: got %v", err)
	}
}

// ----- fund -----

func TestFund_MovesValueAndOpensLoan(t *testing.T) {
	e := newEnv(t)
	dto := mustCreate(t, e)
	e.wallet.Deposit(lender, decimal.NewFromInt(2_000_000))

	var created *loanbook.ActiveLoan
	e.loans.CreateFn = func(_ context.Context, l *loanbook.ActiveLoan) error {
		cp := *l
		created = &cp
		return nil
	}

	out, err := e.uc.Fund(context.Background(), FundInput{
		RequestID: dto.ID,
		Lender:    lender,
		ValueSent: decimal.NewFromInt(1_000_000),
	})
	if err != nil {
		t.Fatalf("Fund: %v", err)
	}
	if out.LoanID != 0 {
		t.Fatalf("first loan id = %d, want 0 (independent id space)", out.LoanID)
	}
	if created == nil || created.Status != loanbook.StatusOpen {
		t.Fatalf("loan not created open: %+v", created)
	}
	if created.Deadline != created.StartTime+30*86400 {
		t.Fatalf("deadline = %d, start = %d", created.Deadline, created.StartTime)
	}

	// borrower received the principal in full; lender paid it; ledger holds nothing
	if got := e.wallet.Balances[borrower]; !got.Equal(decimal.NewFromInt(1_000_000)) {
		t.Fatalf("borrower balance = %s", got)
	}
	if got := e.wallet.Balances[lender]; !got.Equal(decimal.NewFromInt(1_000_000)) {
		t.Fatalf("lender balance = %s", got)
	}
	if got := e.wallet.Balances[ledgerID]; got.Sign() != 0 {
		t.Fatalf("ledger must not retain value: %s", got)
	}

	// collateral does not move on fund
	if holder := e.cust.Holders[itemID]; holder != ledgerID {
		t.Fatalf("collateral must stay escrowed, held by %s", holder)
	}

	if got := e.requests.rows[dto.ID].Status; got != domain.StatusFunded {
		t.Fatalf("request status = %s", got)
	}
	last := e.events.Events[len(e.events.Events)-1]
	if last.Type != event.TypeLoanFunded {
		t.Fatalf("last event = %s", last.Type)
	}
}

func TestFund_ExactWindowBoundarySucceeds(t *testing.T) {
	e := newEnv(t)
	dto := mustCreate(t, e)
	e.wallet.Deposit(lender, decimal.NewFromInt(1_000_000))
	e.loans.CreateFn = func(context.Context, *loanbook.ActiveLoan) error { return nil }

	e.clk.T = time.Unix(dto.CreatedAt+domain.ExpirySeconds, 0)
	if _, err := e.uc.Fund(context.Background(), FundInput{RequestID: dto.ID, Lender: lender, ValueSent: decimal.NewFromInt(1_000_000)}); err != nil {
		t.Fatalf("fund at exact boundary must succeed: %v", err)
	}
}

func TestFund_WrongValue(t *testing.T) {
	e := newEnv(t)
	dto := mustCreate(t, e)
	e.wallet.Deposit(lender, decimal.NewFromInt(2_000_000))

	for _, v := range []int64{999_999, 1_000_001} {
		if _, err := e.uc.Fund(context.Background(), FundInput{RequestID: dto.ID, Lender: lender, ValueSent: decimal.NewFromInt(v)}); !errors.Is(err, domain.ErrWrongValueSent) {
			t.Fatalf("value %d: got %v, want ErrWrongValueSent", v, err)
		}
	}
	if got := e.requests.rows[dto.ID].Status; got != domain.StatusActive {
		t.Fatalf("rejected fund moved status to %s", got)
	}
}

func TestFund_TerminalRequestRejected(t *testing.T) {
	e := newEnv(t)
	dto := mustCreate(t, e)
	if _, err := e.uc.Cancel(context.Background(), dto.ID, borrower); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := e.uc.Fund(context.Background(), FundInput{RequestID: dto.ID, Lender: lender, ValueSent: decimal.NewFromInt(1_000_000)}); !errors.Is(err, domain.ErrNotActive) {
		t.Fatalf("got %v, want ErrNotActive", err)
	}
}

// ----- queries -----

func TestListByBorrower_AscendingIDs(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 3; i++ {
		item := itemID + string(rune('a'+i))
		e.cust.Seed(item, borrower, ledgerID)
		in := validInput()
		in.CollateralID = item
		if _, err := e.uc.Create(context.Background(), in); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	out, err := e.uc.ListByBorrower(context.Background(), borrower)
	if err != nil {
		t.Fatalf("ListByBorrower: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d", len(out))
	}
	for i, r := range out {
		if r.ID != uint64(i) {
			t.Fatalf("ids out of order: %+v", out)
		}
	}
}
