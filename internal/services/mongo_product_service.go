package services

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pawmate/backend/internal/models"
)

type MongoProductService struct {
	client *mongo.Client
	db     *mongo.Database
	col    *mongo.Collection
}

type mongoProductDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Price       float64   `bson:"price"`
	Images      []string  `bson:"images"`
	OwnerID     string    `bson:"owner_id"`
	OwnerName   string    `bson:"owner_name"`
	Contact     string    `bson:"contact,omitempty"`
	Category    string    `bson:"category"`
	CreatedAt   time.Time `bson:"created_at"`
}

func NewMongoProductService(ctx context.Context, mongoURI, dbName string) (*MongoProductService, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	col := db.Collection("products")

	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})

	return &MongoProductService{client: client, db: db, col: col}, nil
}

func (s *MongoProductService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func productDocToModel(d mongoProductDoc) *models.Product {
	imgs := d.Images
	if imgs == nil {
		imgs = []string{}
	}
	return &models.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Images:      imgs,
		OwnerID:     d.OwnerID,
		OwnerName:   d.OwnerName,
		Contact:     d.Contact,
		Category:    d.Category,
		CreatedAt:   d.CreatedAt,
	}
}

func (s *MongoProductService) Create(ctx context.Context, ownerID string, req *models.CreateProductRequest, imageURLs []string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	doc := mongoProductDoc{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Images:      imageURLs,
		OwnerID:     ownerID,
		OwnerName:   req.OwnerName,
		Contact:     req.Contact,
		Category:    req.Category,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return productDocToModel(doc), nil
}

func (s *MongoProductService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoProductDoc
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return productDocToModel(doc), nil
}

func (s *MongoProductService) ListAll(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cur, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Product, 0)
	for cur.Next(ctx) {
		var d mongoProductDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, *productDocToModel(d))
	}
	return out, cur.Err()
}

// Delete removes the product and returns the deleted document so the caller
// can clean up its media.
func (s *MongoProductService) Delete(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoProductDoc
	if err := s.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return productDocToModel(doc), nil
}
