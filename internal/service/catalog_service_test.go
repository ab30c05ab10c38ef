package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	adminOwner = domain.Identity{User: &domain.User{ID: "admin-1", Role: domain.RoleAdmin}}
	otherAdmin = domain.Identity{User: &domain.User{ID: "admin-2", Role: domain.RoleAdmin}}
	plainUser  = domain.Identity{User: &domain.User{ID: "user-1", Role: domain.RoleUser}}
)

func ptr[T any](v T) *T { return &v }

func newCatalog(t *testing.T) (*catalogService, *repository.MemoryProductRepository) {
	t.Helper()
	repo := repository.NewMemoryProductRepository()
	authz := NewAuthService(nil, nil, nil, AuthConfig{}, zap.NewNop())
	svc := NewCatalogService(repo, authz, zap.NewNop()).(*catalogService)
	return svc, repo
}

func input(manufacturer, model, typ string) domain.ProductInput {
	return domain.ProductInput{
		SKU:           ptr("SKU00001"),
		Manufacturer:  ptr(manufacturer),
		Model:         ptr(model),
		Type:          ptr(typ),
		Category:      ptr(domain.CategoryLaptop),
		Color:         ptr("black"),
		SerialNumber:  ptr("SN-1"),
		StockQuantity: ptr(1),
		ReleaseDate:   ptr("2021-01-01"),
		Price:         ptr("100.00"),
	}
}

func mustCreate(t *testing.T, svc CatalogService, caller domain.Identity, in domain.ProductInput) *domain.Product {
	t.Helper()
	p, err := svc.Create(context.Background(), caller, in)
	require.NoError(t, err)
	return p
}

// Created products read back unchanged and owned by their creator
func TestProperty_CreatedProductIsOwnedByCaller(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("get(create(p)) returns p with the caller as owner", prop.ForAll(
		func(manufacturer, model string, stock int, callerID string) bool {
			svc, _ := newCatalog(t)
			ctx := context.Background()
			caller := domain.Identity{User: &domain.User{ID: callerID, Role: domain.RoleUser}}

			in := input(manufacturer, model, "Steel")
			in.StockQuantity = &stock

			created, err := svc.Create(ctx, caller, in)
			if err != nil {
				t.Logf("FAIL: create: %v", err)
				return false
			}

			got, err := svc.Get(ctx, created.ID)
			if err != nil {
				return false
			}
			return got.OwnerID == callerID &&
				got.Manufacturer == manufacturer &&
				got.Model == model &&
				got.StockQuantity == stock &&
				*got == *created
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(0, 1000),
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Walking every page yields each match exactly once
func TestProperty_ListPaginationCoversMatchesOnce(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("sum of page sizes equals total and pages do not overlap", prop.ForAll(
		func(n int) bool {
			svc, _ := newCatalog(t)
			ctx := context.Background()
			for i := 0; i < n; i++ {
				mustCreate(t, svc, plainUser, input(fmt.Sprintf("Maker %d", i%4), fmt.Sprintf("M%d", i), "T"))
			}

			first, err := svc.List(ctx, 1, "maker")
			if err != nil || first.Total != n {
				return false
			}

			seen := make(map[string]bool)
			for page := 1; page <= first.TotalPages; page++ {
				result, err := svc.List(ctx, page, "maker")
				if err != nil {
					return false
				}
				for _, item := range result.Items {
					if seen[item.ID] {
						t.Logf("FAIL: %s appears twice", item.ID)
						return false
					}
					seen[item.ID] = true
				}
			}
			return len(seen) == n
		},
		gen.IntRange(0, 35),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestListBehaviour(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	ford := mustCreate(t, svc, plainUser, input("Ford", "Focus", "Hatch"))
	mustCreate(t, svc, plainUser, input("Dell", "XPS", "Aluminium"))
	for i := 0; i < 12; i++ {
		mustCreate(t, svc, plainUser, input("Acme", fmt.Sprintf("Widget %d", i), "Steel"))
	}

	t.Run("case-insensitive search", func(t *testing.T) {
		result, err := svc.List(ctx, 1, "ford")
		require.NoError(t, err)
		require.Equal(t, 1, result.Total)
		assert.Equal(t, ford.ID, result.Items[0].ID)
	})

	t.Run("search covers type", func(t *testing.T) {
		result, err := svc.List(ctx, 1, "ALUMIN")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Total)
	})

	t.Run("page shape", func(t *testing.T) {
		result, err := svc.List(ctx, 2, "")
		require.NoError(t, err)
		assert.Equal(t, 14, result.Total)
		assert.Equal(t, 2, result.TotalPages)
		assert.Equal(t, 2, result.Page)
		assert.Equal(t, DefaultPageSize, result.PageSize)
		assert.Len(t, result.Items, 4)
	})

	t.Run("invalid page defaults to first", func(t *testing.T) {
		result, err := svc.List(ctx, 0, "")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Len(t, result.Items, DefaultPageSize)
	})

	t.Run("out of range page is empty", func(t *testing.T) {
		result, err := svc.List(ctx, 99, "")
		require.NoError(t, err)
		assert.Equal(t, 14, result.Total)
		assert.NotNil(t, result.Items)
		assert.Empty(t, result.Items)
	})

	t.Run("huge page is empty instead of wrapping", func(t *testing.T) {
		for _, page := range []int{math.MaxInt/DefaultPageSize + 2, 922337203685477582, math.MaxInt} {
			result, err := svc.List(ctx, page, "")
			require.NoError(t, err)
			assert.Equal(t, page, result.Page)
			assert.Equal(t, 14, result.Total)
			assert.NotNil(t, result.Items)
			assert.Empty(t, result.Items, "page %d", page)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		a, err := svc.List(ctx, 1, "acme")
		require.NoError(t, err)
		b, err := svc.List(ctx, 1, "acme")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("empty catalog", func(t *testing.T) {
		empty, _ := newCatalog(t)
		result, err := empty.List(ctx, 1, "")
		require.NoError(t, err)
		assert.Equal(t, 0, result.Total)
		assert.Equal(t, 0, result.TotalPages)
	})
}

func TestCreateRequiresIdentity(t *testing.T) {
	svc, repo := newCatalog(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.Anonymous, input("Ford", "Focus", "Hatch"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateValidatesInput(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(in *domain.ProductInput)
		field string
	}{
		{name: "unknown category", mod: func(in *domain.ProductInput) { in.Category = ptr(domain.Category("Car")) }, field: "category"},
		{name: "negative stock", mod: func(in *domain.ProductInput) { in.StockQuantity = ptr(-1) }, field: "stockQuantity"},
		{name: "price not a number", mod: func(in *domain.ProductInput) { in.Price = ptr("cheap") }, field: "price"},
		{name: "release date not a date", mod: func(in *domain.ProductInput) { in.ReleaseDate = ptr("yesterday") }, field: "releaseDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newCatalog(t)
			in := input("Ford", "Focus", "Hatch")
			tt.mod(&in)

			_, err := svc.Create(context.Background(), plainUser, in)
			require.ErrorIs(t, err, domain.ErrBadRequest)

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}
}

func TestUpdateChangesOnlySubmittedFields(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	original := mustCreate(t, svc, adminOwner, input("Ford", "Focus", "Hatch"))

	updated, err := svc.Update(ctx, adminOwner, original.ID, domain.ProductInput{Price: ptr("123")})
	require.NoError(t, err)

	expected := *original
	expected.Price = "123"
	assert.Equal(t, expected, *updated)
}

func TestMutationPolicy(t *testing.T) {
	tests := []struct {
		name    string
		caller  domain.Identity
		missing bool
		wantErr error
	}{
		{name: "anonymous", caller: domain.Anonymous, wantErr: domain.ErrUnauthorized},
		{name: "anonymous on missing product", caller: domain.Anonymous, missing: true, wantErr: domain.ErrUnauthorized},
		{name: "missing product", caller: adminOwner, missing: true, wantErr: domain.ErrNotFound},
		{name: "admin not owner", caller: otherAdmin, wantErr: domain.ErrForbidden},
		{name: "owner without admin role", caller: plainUser, wantErr: domain.ErrForbidden},
		{name: "admin owner", caller: adminOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			for _, op := range []string{"update", "delete"} {
				svc, _ := newCatalog(t)
				owner := adminOwner
				if tt.caller.UserID() == plainUser.UserID() {
					owner = plainUser
				}
				product := mustCreate(t, svc, owner, input("Ford", "Focus", "Hatch"))

				id := product.ID
				if tt.missing {
					id = "does-not-exist"
				}

				var err error
				if op == "update" {
					_, err = svc.Update(ctx, tt.caller, id, domain.ProductInput{Color: ptr("red")})
				} else {
					err = svc.Delete(ctx, tt.caller, id)
				}

				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr, op)
					stored, getErr := svc.Get(ctx, product.ID)
					require.NoError(t, getErr, op)
					assert.Equal(t, "black", stored.Color, op)
					continue
				}

				require.NoError(t, err, op)
				stored, getErr := svc.Get(ctx, product.ID)
				if op == "update" {
					require.NoError(t, getErr)
					assert.Equal(t, "red", stored.Color)
				} else {
					assert.ErrorIs(t, getErr, domain.ErrNotFound)
				}
			}
		})
	}
}

func TestDistinctValues(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	for _, m := range []string{"lenovo", "Dell", "apple", "Dell", "Émile"} {
		mustCreate(t, svc, plainUser, input(m, "X", "T"))
	}

	values, err := svc.DistinctValues(ctx, FieldManufacturer)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "Dell", "Émile", "lenovo"}, values)

	values, err = svc.DistinctValues(ctx, FieldModel)
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, values)

	_, err = svc.DistinctValues(ctx, "ownerId")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestAggregateByCategoryIncludesEmptyCategories(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	monitor := input("Dell", "U27", "IPS")
	monitor.Category = ptr(domain.CategoryMonitor)
	mustCreate(t, svc, plainUser, monitor)
	mustCreate(t, svc, plainUser, monitor)
	mustCreate(t, svc, plainUser, input("Lenovo", "X1", "Carbon"))

	points, err := svc.Aggregate(ctx, DimensionCategory)
	require.NoError(t, err)
	assert.Equal(t, []domain.ChartPoint{
		{Key: "laptop", Value: 1},
		{Key: "monitor", Value: 2},
		{Key: "peripheral", Value: 0},
		{Key: "accessory", Value: 0},
	}, points)
}

func TestAggregateByManufacturerSortsByName(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	for _, m := range []string{"lenovo", "Dell", "apple", "Dell"} {
		mustCreate(t, svc, plainUser, input(m, "X", "T"))
	}

	points, err := svc.Aggregate(ctx, DimensionManufacturer)
	require.NoError(t, err)
	assert.Equal(t, []domain.ChartPoint{
		{Key: "apple", Value: 1},
		{Key: "Dell", Value: 2},
		{Key: "lenovo", Value: 1},
	}, points)
}

func TestAggregateByReleaseYearZeroFillsGaps(t *testing.T) {
	svc, _ := newCatalog(t)
	svc.now = func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	for _, date := range []string{"2019-04-01", "2021-07-15", "2021-01-01"} {
		in := input("Acme", "A", "B")
		in.ReleaseDate = ptr(date)
		mustCreate(t, svc, plainUser, in)
	}

	points, err := svc.Aggregate(ctx, DimensionReleaseYear)
	require.NoError(t, err)
	assert.Equal(t, []domain.ChartPoint{
		{Key: "2019", Value: 1},
		{Key: "2020", Value: 0},
		{Key: "2021", Value: 2},
		{Key: "2022", Value: 0},
		{Key: "2023", Value: 0},
		{Key: "2024", Value: 0},
	}, points)
}

func TestReleaseYearChartCountsYearZero(t *testing.T) {
	products := []*domain.Product{
		{ReleaseDate: "0000-03-01"},
		{ReleaseDate: "0002-01-01"},
	}

	assert.Equal(t, []domain.ChartPoint{
		{Key: "0", Value: 1},
		{Key: "1", Value: 0},
		{Key: "2", Value: 1},
	}, countByReleaseYear(products, 2))
}

func TestAggregateEdgeCases(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()

	points, err := svc.Aggregate(ctx, DimensionReleaseYear)
	require.NoError(t, err)
	assert.Empty(t, points)

	mustCreate(t, svc, plainUser, input("Acme", "A", "B"))
	points, err = svc.Aggregate(ctx, "COLOR")
	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestSummary(t *testing.T) {
	svc, repo := newCatalog(t)
	ctx := context.Background()

	for _, price := range []string{"0.10", "0.20", "1000"} {
		in := input("Acme", "A", "B")
		in.Price = ptr(price)
		mustCreate(t, svc, plainUser, in)
	}
	mustCreate(t, svc, plainUser, input("Dell", "A", "B"))
	require.NoError(t, repo.Create(ctx, &domain.Product{ID: "legacy", Manufacturer: "Dell", Price: "n/a"}))

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Count)
	assert.Equal(t, 2, summary.OEMs)
	assert.Equal(t, 1100.30, summary.Value)
}

func TestUpdateJudgesBodyAfterPolicy(t *testing.T) {
	svc, _ := newCatalog(t)
	ctx := context.Background()
	product := mustCreate(t, svc, adminOwner, input("Ford", "Focus", "Hatch"))
	bad := domain.ProductInput{Price: ptr("cheap"), Color: ptr("red")}

	_, err := svc.Update(ctx, otherAdmin, product.ID, bad)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Update(ctx, adminOwner, "does-not-exist", bad)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(ctx, adminOwner, product.ID, bad)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	stored, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "black", stored.Color)
	assert.Equal(t, "100.00", stored.Price)
}
