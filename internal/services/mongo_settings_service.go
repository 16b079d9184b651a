package services

import (
	"context"
	"crypto/tls"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pawmate/backend/internal/models"
)

type MongoSettingsService struct {
	client *mongo.Client
	db     *mongo.Database
	col    *mongo.Collection
}

type mongoSettingsDoc struct {
	ID                string `bson:"_id"`
	IsMaintenanceMode bool   `bson:"is_maintenance_mode"`
}

func NewMongoSettingsService(ctx context.Context, mongoURI, dbName string) (*MongoSettingsService, error) {
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
	return &MongoSettingsService{client: client, db: db, col: db.Collection("settings")}, nil
}

func (s *MongoSettingsService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoSettingsService) IsMaintenanceMode(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoSettingsDoc
	err := s.col.FindOne(ctx, bson.M{"_id": models.SystemSettingsID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		// Absent singleton means the site is up.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return doc.IsMaintenanceMode, nil
}

func (s *MongoSettingsService) SetMaintenanceMode(ctx context.Context, on bool) (*models.SystemSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res := s.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": models.SystemSettingsID},
		bson.M{"$set": bson.M{"is_maintenance_mode": on}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	var doc mongoSettingsDoc
	if err := res.Decode(&doc); err != nil {
		return nil, err
	}
	return &models.SystemSettings{ID: doc.ID, IsMaintenanceMode: doc.IsMaintenanceMode}, nil
}
