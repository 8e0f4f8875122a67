package reviews

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastlyapp/feastly-backend/internal/menu"
	"github.com/feastlyapp/feastly-backend/pkg/db"
	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
	"github.com/feastlyapp/feastly-backend/pkg/pagination"
)

type fakeReviewsRepo struct {
	reviews   []models.Review
	createErr error
	listNext  *pagination.Cursor
}

func (f *fakeReviewsRepo) WithTx(*gorm.DB) Repository { return f }

func (f *fakeReviewsRepo) Create(_ context.Context, review *models.Review) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.reviews {
		if existing.MenuItemID == review.MenuItemID && existing.UserID == review.UserID {
			return errors.New(`duplicate key value violates unique constraint "idx_reviews_item_user"`)
		}
	}
	f.reviews = append(f.reviews, *review)
	return nil
}

func (f *fakeReviewsRepo) ListByItem(_ context.Context, menuItemID uuid.UUID, _ int, _ *pagination.Cursor) ([]models.Review, *pagination.Cursor, error) {
	var out []models.Review
	for _, review := range f.reviews {
		if review.MenuItemID == menuItemID {
			out = append(out, review)
		}
	}
	return out, f.listNext, nil
}

func (f *fakeReviewsRepo) Aggregate(_ context.Context, menuItemID uuid.UUID) (float64, int, error) {
	sum, count := 0, 0
	for _, review := range f.reviews {
		if review.MenuItemID == menuItemID {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

type fakeMenuRepo struct {
	items        map[uuid.UUID]*models.MenuItem
	aggregateID  uuid.UUID
	aggregateAvg float64
	aggregateN   int
}

func (f *fakeMenuRepo) WithTx(*gorm.DB) menu.Repository { return f }

func (f *fakeMenuRepo) Create(_ context.Context, item *models.MenuItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeMenuRepo) Update(context.Context, *models.MenuItem) error { return nil }

func (f *fakeMenuRepo) Delete(context.Context, uuid.UUID) (bool, error) { return false, nil }

func (f *fakeMenuRepo) FindByID(_ context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (f *fakeMenuRepo) List(context.Context, menu.ListParams) ([]models.MenuItem, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeMenuRepo) UpdateRatingAggregate(_ context.Context, id uuid.UUID, avg float64, count int) error {
	f.aggregateID = id
	f.aggregateAvg = avg
	f.aggregateN = count
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *fakeReviewsRepo, menuRepo *fakeMenuRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		MenuRepo: menuRepo,
		Tx:       fakeTxRunner{},
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		IsUniqueViolation: func(err error) bool {
			return db.IsUniqueViolation(err, "")
		},
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedMenuItem() (*fakeMenuRepo, uuid.UUID) {
	id := uuid.New()
	return &fakeMenuRepo{items: map[uuid.UUID]*models.MenuItem{
		id: {ID: id, Name: "Buffalo Wings", PriceCents: 599},
	}}, id
}

func TestSubmitStoresReviewAndAggregate(t *testing.T) {
	t.Parallel()

	menuRepo, itemID := seedMenuItem()
	repo := &fakeReviewsRepo{}
	svc := newTestService(t, repo, menuRepo)

	review, err := svc.Submit(context.Background(), uuid.New(), SubmitInput{
		MenuItemID: itemID,
		Rating:     4,
		Comment:    "  crispy and fast  ",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if review.Comment != "crispy and fast" {
		t.Fatalf("comment not trimmed: %q", review.Comment)
	}
	if menuRepo.aggregateID != itemID || menuRepo.aggregateAvg != 4 || menuRepo.aggregateN != 1 {
		t.Fatalf("aggregate not folded: id=%s avg=%v n=%d", menuRepo.aggregateID, menuRepo.aggregateAvg, menuRepo.aggregateN)
	}
}

func TestSubmitAveragesAcrossUsers(t *testing.T) {
	t.Parallel()

	menuRepo, itemID := seedMenuItem()
	repo := &fakeReviewsRepo{}
	svc := newTestService(t, repo, menuRepo)
	ctx := context.Background()

	for _, rating := range []int{5, 4, 4} {
		if _, err := svc.Submit(ctx, uuid.New(), SubmitInput{MenuItemID: itemID, Rating: rating}); err != nil {
			t.Fatalf("submit rating %d: %v", rating, err)
		}
	}
	if menuRepo.aggregateN != 3 {
		t.Fatalf("expected 3 reviews, got %d", menuRepo.aggregateN)
	}
	if menuRepo.aggregateAvg != 4.33 {
		t.Fatalf("expected rounded average 4.33, got %v", menuRepo.aggregateAvg)
	}
}

func TestSubmitSecondReviewConflicts(t *testing.T) {
	t.Parallel()

	menuRepo, itemID := seedMenuItem()
	repo := &fakeReviewsRepo{}
	svc := newTestService(t, repo, menuRepo)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.Submit(ctx, userID, SubmitInput{MenuItemID: itemID, Rating: 5}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := svc.Submit(ctx, userID, SubmitInput{MenuItemID: itemID, Rating: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	menuRepo, itemID := seedMenuItem()
	svc := newTestService(t, &fakeReviewsRepo{}, menuRepo)
	ctx := context.Background()

	cases := []struct {
		name   string
		userID uuid.UUID
		input  SubmitInput
	}{
		{"missing user", uuid.Nil, SubmitInput{MenuItemID: itemID, Rating: 3}},
		{"missing item", uuid.New(), SubmitInput{Rating: 3}},
		{"rating too low", uuid.New(), SubmitInput{MenuItemID: itemID, Rating: 0}},
		{"rating too high", uuid.New(), SubmitInput{MenuItemID: itemID, Rating: 6}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tc.userID, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSubmitUnknownMenuItem(t *testing.T) {
	t.Parallel()

	menuRepo, _ := seedMenuItem()
	svc := newTestService(t, &fakeReviewsRepo{}, menuRepo)

	_, err := svc.Submit(context.Background(), uuid.New(), SubmitInput{MenuItemID: uuid.New(), Rating: 3})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListByItemReturnsCursor(t *testing.T) {
	t.Parallel()

	menuRepo, itemID := seedMenuItem()
	next := &pagination.Cursor{CreatedAt: time.Now().UTC(), ID: uuid.New()}
	repo := &fakeReviewsRepo{
		reviews: []models.Review{
			{ID: uuid.New(), MenuItemID: itemID, UserID: uuid.New(), Rating: 5},
			{ID: uuid.New(), MenuItemID: itemID, UserID: uuid.New(), Rating: 3},
		},
		listNext: next,
	}
	svc := newTestService(t, repo, menuRepo)

	rows, cursor, err := svc.ListByItem(context.Background(), itemID, 10, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(rows))
	}
	if cursor == "" {
		t.Fatal("expected encoded cursor")
	}
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil || parsed == nil || parsed.ID != next.ID {
		t.Fatalf("cursor did not round-trip: %v %v", parsed, err)
	}
}

func TestListByItemRejectsBadCursor(t *testing.T) {
	t.Parallel()

	menuRepo, itemID := seedMenuItem()
	svc := newTestService(t, &fakeReviewsRepo{}, menuRepo)

	_, _, err := svc.ListByItem(context.Background(), itemID, 10, "not-base64!!!")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
