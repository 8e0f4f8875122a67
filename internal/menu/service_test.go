package menu

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	pkgerrors "github.com/feastlyapp/feastly-backend/pkg/errors"
	"github.com/feastlyapp/feastly-backend/pkg/pagination"
)

type fakeRepo struct {
	items      map[uuid.UUID]*models.MenuItem
	listResult []models.MenuItem
	listCursor *pagination.Cursor
	lastParams ListParams
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[uuid.UUID]*models.MenuItem{}}
}

func (f *fakeRepo) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepo) Create(_ context.Context, item *models.MenuItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeRepo) Update(_ context.Context, item *models.MenuItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.items[id]; !ok {
		return false, nil
	}
	delete(f.items, id)
	return true, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *item
	return &clone, nil
}

func (f *fakeRepo) List(_ context.Context, params ListParams) ([]models.MenuItem, *pagination.Cursor, error) {
	f.lastParams = params
	return f.listResult, f.listCursor, nil
}

func (f *fakeRepo) UpdateRatingAggregate(_ context.Context, id uuid.UUID, avg float64, count int) error {
	if item, ok := f.items[id]; ok {
		item.RatingAvg = avg
		item.RatingCount = count
	}
	return nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestCreateMenuItem(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(t, repo)

	dto, err := svc.Create(context.Background(), CreateMenuItemInput{
		Name:       "  Buffalo Wings  ",
		PriceCents: 599,
		Category:   enums.MenuCategoryAppetizer,
		Tags:       []string{"spicy"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Name != "Buffalo Wings" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if !dto.Available {
		t.Fatal("new items should default to available")
	}
	if dto.Price.String() != "5.99" {
		t.Fatalf("expected price 5.99, got %s", dto.Price)
	}
	if dto.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
}

func TestCreateMenuItemValidations(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeRepo())
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateMenuItemInput
	}{
		{"empty name", CreateMenuItemInput{PriceCents: 100, Category: enums.MenuCategoryMain}},
		{"negative price", CreateMenuItemInput{Name: "x", PriceCents: -1, Category: enums.MenuCategoryMain}},
		{"bad category", CreateMenuItemInput{Name: "x", PriceCents: 100, Category: enums.MenuCategory("sushi")}},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, tc.input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestUpdateMenuItemPartial(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(t, repo)
	created, err := svc.Create(context.Background(), CreateMenuItemInput{
		Name:       "Burger",
		PriceCents: 1000,
		Category:   enums.MenuCategoryMain,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	price := 1200
	unavailable := false
	updated, err := svc.Update(context.Background(), created.ID, UpdateMenuItemInput{
		PriceCents: &price,
		Available:  &unavailable,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Price.String() != "12" && updated.Price.String() != "12.00" {
		t.Fatalf("expected updated price, got %s", updated.Price)
	}
	if updated.Available {
		t.Fatal("expected availability toggle to stick")
	}
	if updated.Name != "Burger" {
		t.Fatalf("untouched field changed: %q", updated.Name)
	}
}

func TestUpdateUnknownItem(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeRepo())
	name := "x"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateMenuItemInput{Name: &name})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteMenuItem(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(t, repo)
	created, err := svc.Create(context.Background(), CreateMenuItemInput{
		Name:       "Cola",
		PriceCents: 150,
		Category:   enums.MenuCategoryDrink,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = svc.Delete(context.Background(), created.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListEncodesNextCursor(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.listResult = []models.MenuItem{{ID: uuid.New(), Name: "a", Category: enums.MenuCategoryMain}}
	repo.listCursor = &pagination.Cursor{CreatedAt: time.Now().UTC(), ID: uuid.New()}
	svc := newTestService(t, repo)

	items, next, err := svc.List(context.Background(), ListParams{AvailableOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if next == "" {
		t.Fatal("expected encoded next cursor")
	}
	parsed, err := pagination.ParseCursor(next)
	if err != nil || parsed == nil || parsed.ID != repo.listCursor.ID {
		t.Fatalf("cursor round trip failed: %v %v", parsed, err)
	}
	if !repo.lastParams.AvailableOnly {
		t.Fatal("filter not forwarded to repo")
	}
}

func TestListRejectsUnknownCategory(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeRepo())
	bad := enums.MenuCategory("sushi")
	_, _, err := svc.List(context.Background(), ListParams{Category: &bad})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
