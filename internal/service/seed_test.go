package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadFixtureDefaultsToDemoData(t *testing.T) {
	fixture, err := LoadFixture("")
	require.NoError(t, err)

	require.Len(t, fixture.Users, 2)
	assert.Equal(t, "admin@example.com", fixture.Users[0].Email)
	assert.Equal(t, "admin", fixture.Users[0].Role)
	assert.NotEmpty(t, fixture.Products)

	for _, p := range fixture.Products {
		assert.True(t, domain.Category(p.Category).Valid(), p.SKU)
	}
}

func TestSeedLoadsDemoAccountsAndCatalog(t *testing.T) {
	ctx := context.Background()
	users := repository.NewMemoryUserRepository()
	products := repository.NewMemoryProductRepository()
	sessions := repository.NewMemorySessionRepository(0)
	defer sessions.Close()

	fixture, err := LoadFixture("")
	require.NoError(t, err)
	require.NoError(t, Seed(ctx, fixture, users, products, zap.NewNop()))
	require.NoError(t, Seed(ctx, fixture, users, products, zap.NewNop()))

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all, err := products.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(fixture.Products))

	auth := NewAuthService(users, sessions, NewTokenIssuer("", 0), AuthConfig{}, zap.NewNop())
	result, err := auth.Login(ctx, "admin@example.com", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, "1", result.User.ID)
	assert.Equal(t, domain.RoleAdmin, result.User.Role)

	result, err = auth.Login(ctx, "user@example.com", "userpass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, result.User.Role)
}

func TestSeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `
users:
  - name: Only
    email: only@example.com
    password: pw
    role: user
products:
  - sku: A1
    manufacturer: Acme
    category: Accessory
    price: "1.50"
    ownerId: nobody
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	fixture, err := LoadFixture(path)
	require.NoError(t, err)

	ctx := context.Background()
	users := repository.NewMemoryUserRepository()
	products := repository.NewMemoryProductRepository()
	require.NoError(t, Seed(ctx, fixture, users, products, zap.NewNop()))

	user, err := users.FindByEmail(ctx, "only@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "avatar-user", user.Avatar)

	all, err := products.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotEmpty(t, all[0].ID)
	assert.Equal(t, domain.CategoryAccessory, all[0].Category)
}

func TestSeedRejectsUnknownCategory(t *testing.T) {
	fixture := &Fixture{Products: []FixtureProduct{{SKU: "X", Category: "Car"}}}

	err := Seed(context.Background(), fixture,
		repository.NewMemoryUserRepository(), repository.NewMemoryProductRepository(), zap.NewNop())
	assert.ErrorContains(t, err, "unknown category")
}

func TestLoadFixtureErrors(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("users: [unterminated"), 0o600))
	_, err = LoadFixture(bad)
	assert.Error(t, err)
}
