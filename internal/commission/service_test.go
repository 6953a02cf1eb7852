package commission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/enums"
)

type fakeRepo struct {
	byCategory map[string]*models.CommissionSetting
	global     *models.CommissionSetting
	saved      []*models.CommissionSetting
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byCategory: map[string]*models.CommissionSetting{}}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindActiveByCategory(ctx context.Context, category string) (*models.CommissionSetting, error) {
	if s, ok := f.byCategory[category]; ok && s.IsActive {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindActiveGlobal(ctx context.Context) (*models.CommissionSetting, error) {
	if f.global != nil && f.global.IsActive {
		return f.global, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.CommissionSetting, error) {
	for _, s := range f.byCategory {
		if s.ID == id {
			return s, nil
		}
	}
	if f.global != nil && f.global.ID == id {
		return f.global, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) List(ctx context.Context) ([]models.CommissionSetting, error) {
	var out []models.CommissionSetting
	if f.global != nil {
		out = append(out, *f.global)
	}
	for _, s := range f.byCategory {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, setting *models.CommissionSetting) error {
	setting.ID = uuid.New()
	if setting.Category == nil {
		f.global = setting
	} else {
		f.byCategory[*setting.Category] = setting
	}
	f.saved = append(f.saved, setting)
	return nil
}

func (f *fakeRepo) Save(ctx context.Context, setting *models.CommissionSetting) error {
	f.saved = append(f.saved, setting)
	return nil
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func strPtr(s string) *string { return &s }

func TestResolvePrefersCategoryOverGlobal(t *testing.T) {
	repo := newFakeRepo()
	repo.byCategory["electronics"] = &models.CommissionSetting{
		ID:             uuid.New(),
		Category:       strPtr("electronics"),
		Percentage:     dec(t, "12.00"),
		BasicFee:       dec(t, "3.00"),
		CommissionType: enums.CommissionTypePercentage,
		IsActive:       true,
	}
	repo.global = &models.CommissionSetting{
		ID:             uuid.New(),
		Percentage:     dec(t, "8.00"),
		BasicFee:       decimal.Zero,
		CommissionType: enums.CommissionTypePercentage,
		IsActive:       true,
	}
	svc, _ := NewService(repo)

	info, err := svc.Resolve(context.Background(), "electronics")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Source != "category" || !info.Rate.Equal(dec(t, "12.00")) {
		t.Fatalf("expected category rate, got %+v", info)
	}

	info, err = svc.Resolve(context.Background(), "books")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Source != "global" || !info.Rate.Equal(dec(t, "8.00")) {
		t.Fatalf("expected global fallback, got %+v", info)
	}
}

func TestResolveDefaultWhenNothingConfigured(t *testing.T) {
	svc, _ := NewService(newFakeRepo())

	info, err := svc.Resolve(context.Background(), "toys")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Source != "default" {
		t.Fatalf("expected default source, got %s", info.Source)
	}
	if !info.Rate.Equal(dec(t, "10")) || !info.BasicFee.IsZero() {
		t.Fatalf("expected 10%% / 0 fee default, got %+v", info)
	}
	if info.Type != enums.CommissionTypePercentage {
		t.Fatalf("expected percentage default, got %s", info.Type)
	}
}

func TestResolveSkipsInactiveCategoryRow(t *testing.T) {
	repo := newFakeRepo()
	repo.byCategory["electronics"] = &models.CommissionSetting{
		ID:       uuid.New(),
		Category: strPtr("electronics"),
		IsActive: false,
	}
	svc, _ := NewService(repo)

	info, err := svc.Resolve(context.Background(), "electronics")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Source != "default" {
		t.Fatalf("inactive row must not resolve, got source %s", info.Source)
	}
}

func TestComputePercentage(t *testing.T) {
	info := RateInfo{
		Rate:     dec(t, "10.00"),
		BasicFee: dec(t, "5.00"),
		Type:     enums.CommissionTypePercentage,
	}
	// 100.00 * 2 * 10% + 5.00 = 25.00
	got := Compute(dec(t, "100.00"), 2, info)
	if !got.Equal(dec(t, "25.00")) {
		t.Fatalf("expected 25.00, got %s", got)
	}
}

func TestComputeFixedIgnoresLineValue(t *testing.T) {
	info := RateInfo{
		Rate:     dec(t, "15.00"),
		BasicFee: dec(t, "2.50"),
		Type:     enums.CommissionTypeFixed,
	}
	got := Compute(dec(t, "9999.99"), 7, info)
	if !got.Equal(dec(t, "17.50")) {
		t.Fatalf("expected 17.50, got %s", got)
	}
}

func TestUpsertUpdatesExistingCategoryRow(t *testing.T) {
	repo := newFakeRepo()
	repo.byCategory["books"] = &models.CommissionSetting{
		ID:             uuid.New(),
		Category:       strPtr("books"),
		Percentage:     dec(t, "5.00"),
		CommissionType: enums.CommissionTypePercentage,
		IsActive:       true,
	}
	svc, _ := NewService(repo)

	updated, err := svc.Upsert(context.Background(), UpsertInput{
		Category:       strPtr("books"),
		Percentage:     dec(t, "7.50"),
		BasicFee:       dec(t, "1.00"),
		CommissionType: enums.CommissionTypePercentage,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if updated.ID != repo.byCategory["books"].ID {
		t.Fatal("expected in-place update, not a new row")
	}
	if !updated.Percentage.Equal(dec(t, "7.50")) {
		t.Fatalf("rate not updated: %s", updated.Percentage)
	}
}

func TestUpsertRejectsNegativeRate(t *testing.T) {
	svc, _ := NewService(newFakeRepo())
	_, err := svc.Upsert(context.Background(), UpsertInput{
		Percentage:     dec(t, "-1.00"),
		CommissionType: enums.CommissionTypePercentage,
	})
	if err == nil {
		t.Fatal("expected rejection of negative rate")
	}
}

func TestDeactivate(t *testing.T) {
	repo := newFakeRepo()
	row := &models.CommissionSetting{
		ID:       uuid.New(),
		Category: strPtr("books"),
		IsActive: true,
	}
	repo.byCategory["books"] = row
	svc, _ := NewService(repo)

	if err := svc.Deactivate(context.Background(), row.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if row.IsActive {
		t.Fatal("expected row deactivated")
	}
}
