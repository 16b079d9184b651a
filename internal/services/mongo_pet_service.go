package services

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pawmate/backend/internal/models"
)

type MongoPetService struct {
	client       *mongo.Client
	db           *mongo.Database
	petsColl     *mongo.Collection
	messagesColl *mongo.Collection
	requestsColl *mongo.Collection
	usersColl    *mongo.Collection
}

type mongoPetDoc struct {
	ID                 string    `bson:"_id"`
	Name               string    `bson:"name"`
	Type               string    `bson:"type"`
	Breed              string    `bson:"breed"`
	Age                int       `bson:"age"`
	Gender             string    `bson:"gender"`
	OwnerID            string    `bson:"owner_id"`
	CertificateURL     string    `bson:"certificate_url"`
	ImageURLs          []string  `bson:"image_urls"`
	VerificationStatus string    `bson:"verification_status"`
	IsBanned           bool      `bson:"is_banned"`
	AIAdvisory         string    `bson:"ai_advisory,omitempty"`
	CreatedAt          time.Time `bson:"created_at"`
}

type mongoMessageDoc struct {
	ID         string    `bson:"_id"`
	PetID      string    `bson:"pet_id"`
	RefPetID   string    `bson:"ref_pet_id,omitempty"`
	SenderID   string    `bson:"sender_id"`
	SenderName string    `bson:"sender_name"`
	Text       string    `bson:"text"`
	SentAt     time.Time `bson:"sent_at"`
}

type mongoRequestDoc struct {
	ID               string    `bson:"_id"`
	PetID            string    `bson:"pet_id"`
	RequesterID      string    `bson:"requester_id"`
	RequesterName    string    `bson:"requester_name"`
	RequesterPetID   string    `bson:"requester_pet_id,omitempty"`
	RequesterPetName string    `bson:"requester_pet_name,omitempty"`
	Status           string    `bson:"status"`
	RequestedAt      time.Time `bson:"requested_at"`
}

func NewMongoPetService(ctx context.Context, mongoURI, dbName string) (*MongoPetService, error) {
	// Atlas occasionally fails TLS negotiation in some environments unless we force TLS 1.2.
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
	pets := db.Collection("pets")
	messages := db.Collection("pet_messages")
	requests := db.Collection("pet_requests")

	svc := &MongoPetService{
		client:       client,
		db:           db,
		petsColl:     pets,
		messagesColl: messages,
		requestsColl: requests,
		usersColl:    db.Collection("users"),
	}

	// Best-effort indexes.
	_, _ = pets.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "breed", Value: 1}}},
		{Keys: bson.D{{Key: "verification_status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	_, _ = messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pet_id", Value: 1}, {Key: "sent_at", Value: 1}}},
	})
	// The partial unique index is what makes the duplicate-pending check
	// atomic: a second pending insert for the same (pet, requester) pair is
	// refused by the server rather than detected read-then-write.
	_, _ = requests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pet_id", Value: 1}, {Key: "requested_at", Value: 1}}},
		{
			Keys: bson.D{{Key: "pet_id", Value: 1}, {Key: "requester_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.RequestPending}),
		},
	})

	log.Printf("MongoDB connected: db=%s", dbName)
	return svc, nil
}

func (s *MongoPetService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func petDocToModel(d mongoPetDoc) *models.Pet {
	imgs := d.ImageURLs
	if imgs == nil {
		imgs = []string{}
	}
	return &models.Pet{
		ID:                 d.ID,
		Name:               d.Name,
		Type:               d.Type,
		Breed:              d.Breed,
		Age:                d.Age,
		Gender:             d.Gender,
		OwnerID:            d.OwnerID,
		CertificateURL:     d.CertificateURL,
		ImageURLs:          imgs,
		VerificationStatus: d.VerificationStatus,
		IsBanned:           d.IsBanned,
		AIAdvisory:         d.AIAdvisory,
		Messages:           []models.Message{},
		MatingHistory:      []models.MatingRequest{},
		CreatedAt:          d.CreatedAt,
	}
}

func messageDocToModel(d mongoMessageDoc) models.Message {
	petID := d.PetID
	if d.RefPetID != "" {
		// Mirror copies route by owner key; surface the real pet.
		petID = d.RefPetID
	}
	return models.Message{
		ID:         d.ID,
		PetID:      petID,
		SenderID:   d.SenderID,
		SenderName: d.SenderName,
		Text:       d.Text,
		SentAt:     d.SentAt,
	}
}

func requestDocToModel(d mongoRequestDoc) models.MatingRequest {
	return models.MatingRequest{
		ID:               d.ID,
		PetID:            d.PetID,
		RequesterID:      d.RequesterID,
		RequesterName:    d.RequesterName,
		RequesterPetID:   d.RequesterPetID,
		RequesterPetName: d.RequesterPetName,
		Status:           d.Status,
		RequestedAt:      d.RequestedAt,
	}
}

func (s *MongoPetService) Create(ctx context.Context, p *NewPet) (*models.Pet, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	doc := mongoPetDoc{
		ID:                 uuid.New().String(),
		Name:               p.Name,
		Type:               p.Type,
		Breed:              p.Breed,
		Age:                p.Age,
		Gender:             p.Gender,
		OwnerID:            p.OwnerID,
		CertificateURL:     p.CertificateURL,
		ImageURLs:          p.ImageURLs,
		VerificationStatus: models.VerificationPending,
		IsBanned:           false,
		CreatedAt:          time.Now().UTC(),
	}

	if _, err := s.petsColl.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return petDocToModel(doc), nil
}

func (s *MongoPetService) GetByID(ctx context.Context, id string) (*models.Pet, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoPetDoc
	if err := s.petsColl.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPetNotFound
		}
		return nil, err
	}

	pet := petDocToModel(doc)
	if err := s.attachHistory(ctx, pet); err != nil {
		return nil, err
	}
	return pet, nil
}

func (s *MongoPetService) attachHistory(ctx context.Context, pet *models.Pet) error {
	cur, err := s.messagesColl.Find(
		ctx,
		bson.M{"pet_id": pet.ID},
		options.Find().SetSort(bson.D{{Key: "sent_at", Value: 1}}),
	)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var d mongoMessageDoc
		if err := cur.Decode(&d); err != nil {
			return err
		}
		pet.Messages = append(pet.Messages, messageDocToModel(d))
	}
	if err := cur.Err(); err != nil {
		return err
	}

	rcur, err := s.requestsColl.Find(
		ctx,
		bson.M{"pet_id": pet.ID},
		options.Find().SetSort(bson.D{{Key: "requested_at", Value: 1}}),
	)
	if err != nil {
		return err
	}
	defer rcur.Close(ctx)
	for rcur.Next(ctx) {
		var d mongoRequestDoc
		if err := rcur.Decode(&d); err != nil {
			return err
		}
		pet.MatingHistory = append(pet.MatingHistory, requestDocToModel(d))
	}
	return rcur.Err()
}

// List returns browse-view summaries. Banned pets never appear. The city
// filter resolves matching users first, then keeps pets whose owner is in
// that set; the per-pet owner-location join is a second query per result,
// tolerable at this collection size.
func (s *MongoPetService) List(ctx context.Context, f *models.PetFilter) ([]models.PetSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"is_banned": false}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Breed != "" {
		filter["breed"] = f.Breed
	}
	if f.ExcludeOwnerID != "" {
		filter["owner_id"] = bson.M{"$ne": f.ExcludeOwnerID}
	}

	cur, err := s.petsColl.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	docs := make([]mongoPetDoc, 0)
	for cur.Next(ctx) {
		var d mongoPetDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	var cityUIDs map[string]struct{}
	if f.City != "" {
		cityUIDs = make(map[string]struct{})
		ucur, err := s.usersColl.Find(
			ctx,
			bson.M{"location.city": f.City},
			options.Find().SetProjection(bson.M{"firebase_uid": 1}),
		)
		if err != nil {
			return nil, err
		}
		defer ucur.Close(ctx)
		for ucur.Next(ctx) {
			var u struct {
				FirebaseUID string `bson:"firebase_uid"`
			}
			if err := ucur.Decode(&u); err != nil {
				return nil, err
			}
			cityUIDs[u.FirebaseUID] = struct{}{}
		}
		if err := ucur.Err(); err != nil {
			return nil, err
		}
	}

	out := make([]models.PetSummary, 0, len(docs))
	for _, d := range docs {
		if cityUIDs != nil {
			if _, ok := cityUIDs[d.OwnerID]; !ok {
				continue
			}
		}
		out = append(out, models.PetSummary{
			ID:             d.ID,
			Name:           d.Name,
			Type:           d.Type,
			Breed:          d.Breed,
			Age:            d.Age,
			Gender:         d.Gender,
			OwnerID:        d.OwnerID,
			ImageURLs:      append([]string{}, d.ImageURLs...),
			CertificateURL: d.CertificateURL,
			Location:       s.ownerLocation(ctx, d.OwnerID),
		})
	}
	return out, nil
}

func (s *MongoPetService) ownerLocation(ctx context.Context, ownerUID string) *models.Location {
	var u struct {
		Location *models.Location `bson:"location"`
	}
	if err := s.usersColl.FindOne(
		ctx,
		bson.M{"firebase_uid": ownerUID},
		options.FindOne().SetProjection(bson.M{"location": 1}),
	).Decode(&u); err != nil {
		return nil
	}
	return u.Location
}

func (s *MongoPetService) ListByOwner(ctx context.Context, ownerID string) ([]models.Pet, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.findPets(ctx, bson.M{"owner_id": ownerID})
}

func (s *MongoPetService) ListAll(ctx context.Context) ([]models.Pet, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.findPets(ctx, bson.M{})
}

func (s *MongoPetService) findPets(ctx context.Context, filter bson.M) ([]models.Pet, error) {
	cur, err := s.petsColl.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Pet, 0)
	for cur.Next(ctx) {
		var d mongoPetDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, *petDocToModel(d))
	}
	return out, cur.Err()
}

func (s *MongoPetService) Delete(ctx context.Context, id string) (*models.Pet, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc mongoPetDoc
	if err := s.petsColl.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPetNotFound
		}
		return nil, err
	}

	if _, err := s.messagesColl.DeleteMany(ctx, bson.M{"pet_id": id}); err != nil {
		return nil, err
	}
	if _, err := s.requestsColl.DeleteMany(ctx, bson.M{"pet_id": id}); err != nil {
		return nil, err
	}
	return petDocToModel(doc), nil
}

func (s *MongoPetService) AddMessage(ctx context.Context, petID, senderID, senderName, text string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Messages may target any resolvable pet, banned or not.
	if err := s.petsColl.FindOne(ctx, bson.M{"_id": petID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPetNotFound
		}
		return nil, err
	}

	doc := mongoMessageDoc{
		ID:         uuid.New().String(),
		PetID:      petID,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		SentAt:     time.Now().UTC(),
	}
	if _, err := s.messagesColl.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	m := messageDocToModel(doc)
	return &m, nil
}

func (s *MongoPetService) MirrorMessage(ctx context.Context, ownerUID, petID, senderID, senderName, text string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	doc := mongoMessageDoc{
		ID:         uuid.New().String(),
		PetID:      mirrorKey(ownerUID),
		RefPetID:   petID,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		SentAt:     time.Now().UTC(),
	}
	if _, err := s.messagesColl.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	m := messageDocToModel(doc)
	return &m, nil
}

func (s *MongoPetService) ListMirrorMessages(ctx context.Context, ownerUID string) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cur, err := s.messagesColl.Find(
		ctx,
		bson.M{"pet_id": mirrorKey(ownerUID)},
		options.Find().SetSort(bson.M{"sent_at": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Message, 0)
	for cur.Next(ctx) {
		var d mongoMessageDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, messageDocToModel(d))
	}
	return out, cur.Err()
}

func (s *MongoPetService) AddMatingRequest(ctx context.Context, req *NewMatingRequest) (*models.MatingRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var pet mongoPetDoc
	if err := s.petsColl.FindOne(ctx, bson.M{"_id": req.PetID}).Decode(&pet); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	if pet.IsBanned {
		return nil, ErrPetBanned
	}
	if pet.VerificationStatus != models.VerificationVerified {
		return nil, ErrPetNotVerified
	}
	if pet.OwnerID == req.RequesterID {
		return nil, ErrSelfRequest
	}

	doc := mongoRequestDoc{
		ID:               uuid.New().String(),
		PetID:            req.PetID,
		RequesterID:      req.RequesterID,
		RequesterName:    req.RequesterName,
		RequesterPetID:   req.RequesterPetID,
		RequesterPetName: req.RequesterPetName,
		Status:           models.RequestPending,
		RequestedAt:      time.Now().UTC(),
	}
	if _, err := s.requestsColl.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}

	if req.Note != "" {
		note := mongoMessageDoc{
			ID:         uuid.New().String(),
			PetID:      req.PetID,
			SenderID:   req.RequesterID,
			SenderName: req.RequesterName,
			Text:       req.Note,
			SentAt:     time.Now().UTC(),
		}
		if _, err := s.messagesColl.InsertOne(ctx, note); err != nil {
			log.Printf("[PetService] request note insert failed pet=%s err=%v", req.PetID, err)
		}
	}

	m := requestDocToModel(doc)
	return &m, nil
}

func (s *MongoPetService) SetRequestStatus(ctx context.Context, petID, requestID, ownerID, status string) (*models.MatingRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var pet mongoPetDoc
	if err := s.petsColl.FindOne(ctx, bson.M{"_id": petID}).Decode(&pet); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	if pet.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}

	// The status filter makes settling a one-way door: a request that
	// already left pending never matches again.
	res := s.requestsColl.FindOneAndUpdate(
		ctx,
		bson.M{"_id": requestID, "pet_id": petID, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated mongoRequestDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			var exists mongoRequestDoc
			if err2 := s.requestsColl.FindOne(ctx, bson.M{"_id": requestID, "pet_id": petID}).Decode(&exists); err2 == mongo.ErrNoDocuments {
				return nil, ErrRequestNotFound
			}
			return nil, ErrRequestSettled
		}
		return nil, err
	}

	m := requestDocToModel(updated)
	return &m, nil
}

func (s *MongoPetService) SetVerification(ctx context.Context, petID, status string) (*models.Pet, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// One $set covers both fields, so a rejected pet is never left unbanned.
	res := s.petsColl.FindOneAndUpdate(
		ctx,
		bson.M{"_id": petID},
		bson.M{"$set": bson.M{
			"verification_status": status,
			"is_banned":           status == models.VerificationRejected,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated mongoPetDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return petDocToModel(updated), nil
}

func (s *MongoPetService) SetAdvisory(ctx context.Context, petID, advisory string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := s.petsColl.UpdateOne(ctx, bson.M{"_id": petID}, bson.M{"$set": bson.M{"ai_advisory": advisory}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPetNotFound
	}
	return nil
}

func (s *MongoPetService) ListPendingWithoutAdvisory(ctx context.Context, limit int) ([]models.Pet, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	cur, err := s.petsColl.Find(
		ctx,
		bson.M{
			"verification_status": models.VerificationPending,
			"certificate_url":     bson.M{"$ne": ""},
			"$or": []bson.M{
				{"ai_advisory": bson.M{"$exists": false}},
				{"ai_advisory": ""},
			},
		},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Pet, 0)
	for cur.Next(ctx) {
		var d mongoPetDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, *petDocToModel(d))
	}
	return out, cur.Err()
}
