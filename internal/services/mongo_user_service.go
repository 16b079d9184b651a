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

type MongoUserService struct {
	client *mongo.Client
	db     *mongo.Database
	col    *mongo.Collection
}

type mongoUserDoc struct {
	ID          string           `bson:"_id"`
	Name        string           `bson:"name"`
	Username    string           `bson:"username"`
	Phone       string           `bson:"phone"`
	FirebaseUID string           `bson:"firebase_uid"`
	Location    *models.Location `bson:"location,omitempty"`
	IsAdmin     bool             `bson:"is_admin"`
	IsBanned    bool             `bson:"is_banned"`
	Strikes     int              `bson:"strikes"`
	CreatedAt   time.Time        `bson:"created_at"`
	UpdatedAt   time.Time        `bson:"updated_at"`
}

func NewMongoUserService(ctx context.Context, mongoURI, dbName string) (*MongoUserService, error) {
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
	col := db.Collection("users")

	// Unique indexes make registration conflicts a server-side decision
	// instead of a read-then-write check.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "firebase_uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "location.city", Value: 1}}},
	})

	return &MongoUserService{client: client, db: db, col: col}, nil
}

func (s *MongoUserService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func userDocToModel(d mongoUserDoc) *models.User {
	return &models.User{
		ID:          d.ID,
		Name:        d.Name,
		Username:    d.Username,
		Phone:       d.Phone,
		FirebaseUID: d.FirebaseUID,
		Location:    d.Location,
		IsAdmin:     d.IsAdmin,
		IsBanned:    d.IsBanned,
		Strikes:     d.Strikes,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (s *MongoUserService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	doc := mongoUserDoc{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Username:    req.Username,
		Phone:       req.Phone,
		FirebaseUID: req.FirebaseUID,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return userDocToModel(doc), nil
}

func (s *MongoUserService) GetByUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoUserDoc
	if err := s.col.FindOne(ctx, bson.M{"firebase_uid": firebaseUID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return userDocToModel(doc), nil
}

func (s *MongoUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoUserDoc
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return userDocToModel(doc), nil
}

func (s *MongoUserService) ListAll(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.User, 0)
	for cur.Next(ctx) {
		var d mongoUserDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, *userDocToModel(d))
	}
	return out, cur.Err()
}

func (s *MongoUserService) SetBanned(ctx context.Context, id string, banned bool) (*models.User, error) {
	return s.setFlag(ctx, id, "is_banned", banned)
}

func (s *MongoUserService) SetAdmin(ctx context.Context, id string, admin bool) (*models.User, error) {
	return s.setFlag(ctx, id, "is_admin", admin)
}

func (s *MongoUserService) setFlag(ctx context.Context, id, field string, value bool) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res := s.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated mongoUserDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return userDocToModel(updated), nil
}

// AddStrike increments the moderation strike counter for the user owning the
// given identity token.
func (s *MongoUserService) AddStrike(ctx context.Context, firebaseUID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.col.UpdateOne(ctx, bson.M{"firebase_uid": firebaseUID}, bson.M{
		"$inc": bson.M{"strikes": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}
