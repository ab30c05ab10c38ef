package service

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/demo.yaml
var demoFixture []byte

// Fixture is the seed data loaded at start-up
type Fixture struct {
	Users    []FixtureUser    `yaml:"users"`
	Products []FixtureProduct `yaml:"products"`
}

// FixtureUser is a seeded account with a plaintext password
type FixtureUser struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Avatar   string `yaml:"avatar"`
	Role     string `yaml:"role"`
}

// FixtureProduct is a seeded catalog entry
type FixtureProduct struct {
	ID            string `yaml:"id"`
	SKU           string `yaml:"sku"`
	Manufacturer  string `yaml:"manufacturer"`
	Model         string `yaml:"model"`
	Type          string `yaml:"type"`
	Category      string `yaml:"category"`
	Color         string `yaml:"color"`
	SerialNumber  string `yaml:"serialNumber"`
	StockQuantity int    `yaml:"stockQuantity"`
	ReleaseDate   string `yaml:"releaseDate"`
	Price         string `yaml:"price"`
	OwnerID       string `yaml:"ownerId"`
}

// LoadFixture reads a seed file, or the built-in demo data when path is empty
func LoadFixture(path string) (*Fixture, error) {
	data := demoFixture
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
	}

	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &fixture, nil
}

// Seed loads the fixture into empty stores. Users are skipped when any
// account exists and products when the catalog is not empty, so restarting
// against a persistent database does not duplicate data.
func Seed(
	ctx context.Context,
	fixture *Fixture,
	users repository.UserRepository,
	products repository.ProductRepository,
	logger *zap.Logger,
) error {
	userCount, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if userCount == 0 {
		for _, fu := range fixture.Users {
			user, err := fu.toUser()
			if err != nil {
				return err
			}
			if err := users.Create(ctx, user); err != nil {
				return fmt.Errorf("failed to seed user %s: %w", fu.Email, err)
			}
		}
		logger.Info("Seeded users", zap.Int("count", len(fixture.Users)))
	}

	_, productCount, err := products.Search(ctx, "", 0, 1)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if productCount == 0 {
		for _, fp := range fixture.Products {
			product := fp.toProduct()
			if !product.Category.Valid() {
				return fmt.Errorf("failed to seed product %s: unknown category %q", fp.SKU, fp.Category)
			}
			if err := products.Create(ctx, product); err != nil {
				return fmt.Errorf("failed to seed product %s: %w", fp.SKU, err)
			}
		}
		logger.Info("Seeded products", zap.Int("count", len(fixture.Products)))
	}

	return nil
}

func (fu FixtureUser) toUser() (*domain.User, error) {
	hashed, err := hashPassword(fu.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password for %s: %w", fu.Email, err)
	}

	role := domain.ParseRole(fu.Role)
	avatar := fu.Avatar
	if avatar == "" {
		avatar = domain.DefaultAvatar(role)
	}
	id := fu.ID
	if id == "" {
		id = uuid.NewString()
	}

	return &domain.User{
		ID:           id,
		Name:         fu.Name,
		Email:        fu.Email,
		PasswordHash: hashed,
		Avatar:       avatar,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (fp FixtureProduct) toProduct() *domain.Product {
	id := fp.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &domain.Product{
		ID:            id,
		SKU:           fp.SKU,
		Manufacturer:  fp.Manufacturer,
		Model:         fp.Model,
		Type:          fp.Type,
		Category:      domain.Category(fp.Category),
		Color:         fp.Color,
		SerialNumber:  fp.SerialNumber,
		StockQuantity: fp.StockQuantity,
		ReleaseDate:   fp.ReleaseDate,
		Price:         fp.Price,
		OwnerID:       fp.OwnerID,
	}
}
