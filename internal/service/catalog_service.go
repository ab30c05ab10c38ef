package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPageSize is the fixed number of products per catalog page
const DefaultPageSize = 10

// Chart dimensions accepted by Aggregate
const (
	DimensionCategory     = "FUEL_TYPE"
	DimensionManufacturer = "OEM"
	DimensionReleaseYear  = "REGISTRATION_YEAR"
)

// Product fields accepted by DistinctValues
const (
	FieldManufacturer = "manufacturer"
	FieldModel        = "model"
	FieldType         = "type"
	FieldColor        = "color"
)

// ErrUnknownField is returned by DistinctValues for fields outside the allow-list
var ErrUnknownField = fmt.Errorf("unknown product field: %w", domain.ErrBadRequest)

// Authorizer decides whether a caller may change a product
type Authorizer interface {
	AuthorizeMutation(caller domain.Identity, product *domain.Product) error
}

// CatalogService defines the interface for catalog business logic
type CatalogService interface {
	List(ctx context.Context, page int, query string) (*domain.ProductPage, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, caller domain.Identity, in domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, caller domain.Identity, id string, in domain.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, caller domain.Identity, id string) error
	DistinctValues(ctx context.Context, field string) ([]string, error)
	Aggregate(ctx context.Context, dimension string) ([]domain.ChartPoint, error)
	Summary(ctx context.Context) (*domain.Summary, error)
}

type catalogService struct {
	products   repository.ProductRepository
	authorizer Authorizer
	logger     *zap.Logger
	now        func() time.Time
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(products repository.ProductRepository, authorizer Authorizer, logger *zap.Logger) CatalogService {
	return &catalogService{
		products:   products,
		authorizer: authorizer,
		logger:     logger,
		now:        time.Now,
	}
}

// List returns one page of products matching query. Pages below 1 are
// treated as the first page; pages past the end come back empty.
func (s *catalogService) List(ctx context.Context, page int, query string) (*domain.ProductPage, error) {
	if page < 1 {
		page = 1
	}

	// pages whose offset does not fit in an int are past any real catalog
	offset, limit := (page-1)*DefaultPageSize, DefaultPageSize
	if page-1 > math.MaxInt/DefaultPageSize {
		offset, limit = 0, 0
	}

	products, total, err := s.products.Search(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	items := make([]domain.ProductListing, 0, len(products))
	for _, p := range products {
		items = append(items, p.Listing())
	}

	return &domain.ProductPage{
		Total:      total,
		TotalPages: (total + DefaultPageSize - 1) / DefaultPageSize,
		Page:       page,
		PageSize:   DefaultPageSize,
		Items:      items,
	}, nil
}

// Get retrieves a full product record
func (s *catalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// Create stores a new product owned by the caller
func (s *catalogService) Create(ctx context.Context, caller domain.Identity, in domain.ProductInput) (*domain.Product, error) {
	if !caller.Authenticated() {
		return nil, ErrAuthenticationRequired
	}
	if err := validateProductInput(in); err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:      uuid.NewString(),
		OwnerID: caller.UserID(),
	}
	product.Apply(in)

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("owner_id", product.OwnerID),
	)
	return product, nil
}

// Update applies the allow-listed fields of in. The policy check and the
// write happen while the product is locked. The body is only judged once the
// caller is known to own the product.
func (s *catalogService) Update(ctx context.Context, caller domain.Identity, id string, in domain.ProductInput) (*domain.Product, error) {
	if !caller.Authenticated() {
		return nil, ErrAuthenticationRequired
	}

	updated, err := s.products.Update(ctx, id, func(p *domain.Product) error {
		if err := s.authorizer.AuthorizeMutation(caller, p); err != nil {
			return err
		}
		if err := validateProductInput(in); err != nil {
			return err
		}
		p.Apply(in)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product updated",
		zap.String("product_id", id),
		zap.String("user_id", caller.UserID()),
	)
	return updated, nil
}

// Delete removes a product after the policy check
func (s *catalogService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	if !caller.Authenticated() {
		return ErrAuthenticationRequired
	}

	err := s.products.Delete(ctx, id, func(p *domain.Product) error {
		return s.authorizer.AuthorizeMutation(caller, p)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Product deleted",
		zap.String("product_id", id),
		zap.String("user_id", caller.UserID()),
	)
	return nil
}

// DistinctValues returns the unique values of field in collation order
func (s *catalogService) DistinctValues(ctx context.Context, field string) ([]string, error) {
	pick, err := fieldAccessor(field)
	if err != nil {
		return nil, err
	}

	products, err := s.products.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	seen := make(map[string]struct{}, len(products))
	values := make([]string, 0, len(products))
	for _, p := range products {
		v := pick(p)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}

	newCollator().SortStrings(values)
	return values, nil
}

func fieldAccessor(field string) (func(*domain.Product) string, error) {
	switch field {
	case FieldManufacturer:
		return func(p *domain.Product) string { return p.Manufacturer }, nil
	case FieldModel:
		return func(p *domain.Product) string { return p.Model }, nil
	case FieldType:
		return func(p *domain.Product) string { return p.Type }, nil
	case FieldColor:
		return func(p *domain.Product) string { return p.Color }, nil
	default:
		return nil, ErrUnknownField
	}
}

// Aggregate counts products along one of the chart dimensions. Unknown
// dimensions produce an empty chart.
func (s *catalogService) Aggregate(ctx context.Context, dimension string) ([]domain.ChartPoint, error) {
	products, err := s.products.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	switch dimension {
	case DimensionCategory:
		return countByCategory(products), nil
	case DimensionManufacturer:
		return countByManufacturer(products), nil
	case DimensionReleaseYear:
		return countByReleaseYear(products, s.now().Year()), nil
	default:
		return []domain.ChartPoint{}, nil
	}
}

func countByCategory(products []*domain.Product) []domain.ChartPoint {
	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, p := range products {
		counts[p.Category]++
	}

	points := make([]domain.ChartPoint, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		points = append(points, domain.ChartPoint{Key: c.ChartKey(), Value: counts[c]})
	}
	return points
}

func countByManufacturer(products []*domain.Product) []domain.ChartPoint {
	counts := make(map[string]int)
	for _, p := range products {
		counts[p.Manufacturer]++
	}

	points := make([]domain.ChartPoint, 0, len(counts))
	for key, value := range counts {
		points = append(points, domain.ChartPoint{Key: key, Value: value})
	}

	col := newCollator()
	sort.Slice(points, func(i, j int) bool {
		return col.CompareString(points[i].Key, points[j].Key) < 0
	})
	return points
}

// countByReleaseYear zero-fills every year from the oldest release up to
// currentYear. Keys sort as strings.
func countByReleaseYear(products []*domain.Product, currentYear int) []domain.ChartPoint {
	counts := make(map[string]int)
	minYear, seen := 0, false
	for _, p := range products {
		year, ok := p.ReleaseYear()
		if !ok {
			continue
		}
		if !seen || year < minYear {
			minYear, seen = year, true
		}
		counts[strconv.Itoa(year)]++
	}
	if !seen {
		return []domain.ChartPoint{}
	}

	for year := minYear; year <= currentYear; year++ {
		key := strconv.Itoa(year)
		if _, ok := counts[key]; !ok {
			counts[key] = 0
		}
	}

	points := make([]domain.ChartPoint, 0, len(counts))
	for key, value := range counts {
		points = append(points, domain.ChartPoint{Key: key, Value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Key < points[j].Key })
	return points
}

// Summary totals the catalog. Prices that do not parse count as zero.
func (s *catalogService) Summary(ctx context.Context) (*domain.Summary, error) {
	products, err := s.products.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	manufacturers := make(map[string]struct{})
	total := decimal.Zero
	for _, p := range products {
		manufacturers[p.Manufacturer] = struct{}{}

		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			s.logger.Debug("Skipping unparsable price",
				zap.String("product_id", p.ID),
				zap.String("price", p.Price),
			)
			continue
		}
		total = total.Add(price)
	}

	return &domain.Summary{
		Count: len(products),
		OEMs:  len(manufacturers),
		Value: total.InexactFloat64(),
	}, nil
}

// newCollator returns an English collator. Collators keep internal buffers
// and must not be shared between goroutines.
func newCollator() *collate.Collator {
	return collate.New(language.English)
}
