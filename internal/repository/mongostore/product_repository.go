// Package mongostore keeps the product catalog and accounts in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection = "products"
	countersCollection = "counters"
	usersCollection    = "users"

	// maxWriteAttempts bounds the optimistic retry loop of Update and Delete
	maxWriteAttempts = 16
)

// productDocument adds the insertion sequence and a revision counter to the
// stored product. The revision guards read-check-write cycles.
type productDocument struct {
	domain.Product `bson:",inline"`
	Seq            int64 `bson:"seq"`
	Rev            int64 `bson:"rev"`
}

type productRepository struct {
	products *mongo.Collection
	counters *mongo.Collection
}

// NewProductRepository creates a new MongoDB product repository
func NewProductRepository(db *mongo.Database) repository.ProductRepository {
	return &productRepository{
		products: db.Collection(productsCollection),
		counters: db.Collection(countersCollection),
	}
}

// EnsureIndexes creates the listing order index and the unique email index
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(productsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create product index: %w", err)
	}

	_, err = db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user index: %w", err)
	}
	return nil
}

func (r *productRepository) nextSeq(ctx context.Context) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": productsCollection},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate product sequence: %w", err)
	}
	return counter.Value, nil
}

// Create inserts a new product
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	seq, err := r.nextSeq(ctx)
	if err != nil {
		return err
	}

	doc := productDocument{Product: *product, Seq: seq}
	if _, err := r.products.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *productRepository) load(ctx context.Context, id string) (*productDocument, error) {
	var doc productDocument
	err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &doc, nil
}

// FindByID retrieves a product by its ID
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	doc, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &doc.Product, nil
}

// Update replaces the product only if no other writer got there first. On a
// lost race the product is reloaded and mutate runs again.
func (r *productRepository) Update(ctx context.Context, id string, mutate repository.MutateFunc) (*domain.Product, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		doc, err := r.load(ctx, id)
		if err != nil {
			return nil, err
		}

		next := doc.Product.Clone()
		if err := mutate(next); err != nil {
			return nil, err
		}
		next.ID = doc.ID
		next.OwnerID = doc.OwnerID

		replacement := productDocument{Product: *next, Seq: doc.Seq, Rev: doc.Rev + 1}
		result, err := r.products.ReplaceOne(ctx, bson.M{"_id": id, "rev": doc.Rev}, replacement)
		if err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
		if result.MatchedCount == 1 {
			return next, nil
		}
	}
	return nil, fmt.Errorf("failed to update product %s: too much contention", id)
}

// Delete removes the product once check accepts the current revision
func (r *productRepository) Delete(ctx context.Context, id string, check repository.MutateFunc) error {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		doc, err := r.load(ctx, id)
		if err != nil {
			return err
		}

		if check != nil {
			if err := check(doc.Product.Clone()); err != nil {
				return err
			}
		}

		result, err := r.products.DeleteOne(ctx, bson.M{"_id": id, "rev": doc.Rev})
		if err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		if result.DeletedCount == 1 {
			return nil
		}
	}
	return fmt.Errorf("failed to delete product %s: too much contention", id)
}

func searchFilter(query string) bson.M {
	if query == "" {
		return bson.M{}
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"manufacturer": pattern},
		bson.M{"model": pattern},
		bson.M{"type": pattern},
	}}
}

// Search returns a window of matching products in insertion order
func (r *productRepository) Search(ctx context.Context, query string, offset, limit int) ([]*domain.Product, int, error) {
	filter := searchFilter(query)

	total, err := r.products.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	if offset < 0 || int64(offset) >= total || limit <= 0 {
		return []*domain.Product{}, int(total), nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	products, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, int(total), nil
}

// All returns every product in insertion order
func (r *productRepository) All(ctx context.Context) ([]*domain.Product, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
}

func (r *productRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Product, error) {
	cursor, err := r.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].Product.Clone())
	}
	return products, nil
}
