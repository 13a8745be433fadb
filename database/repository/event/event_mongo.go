package eventRepo

import (
	"context"
	"fmt"
	"time"

	"roomwise/database"
	"roomwise/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEventRepo implements EventRepository using MongoDB.
type MongoEventRepo struct {
	coll *mongo.Collection
}

// NewMongoEventRepo creates a new instance of EventRepository using MongoDB.
func NewMongoEventRepo() EventRepository {
	coll := database.MongoClient.Database("roomwise").Collection("events")
	repo := &MongoEventRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoEventRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "end", Value: 1}}},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoEventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var ev models.Event
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&ev); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch event %s: %w", id, err)
	}
	return &ev, nil
}

func (r *MongoEventRepo) Upsert(ctx context.Context, event *models.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"uid": event.UID}, event, opts); err != nil {
		return fmt.Errorf("failed to upsert event %s: %w", event.UID, err)
	}
	return nil
}

func (r *MongoEventRepo) FindUpcomingByUser(ctx context.Context, userID string, now time.Time) ([]models.Event, error) {
	filter := bson.M{
		"user_id": userID,
		"end":     bson.M{"$gt": now},
	}
	return r.find(ctx, filter)
}

func (r *MongoEventRepo) FindUnbookedByUser(ctx context.Context, userID string, now time.Time) ([]models.Event, error) {
	filter := bson.M{
		"user_id": userID,
		"end":     bson.M{"$gt": now},
		"$or": bson.A{
			bson.M{"booking_id": bson.M{"$exists": false}},
			bson.M{"booking_id": ""},
		},
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"location": bson.M{"$exists": false}},
				bson.M{"location": ""},
			}},
		},
	}
	return r.find(ctx, filter)
}

func (r *MongoEventRepo) SetBookingLink(ctx context.Context, eventID, bookingID string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": eventID}, bson.M{"$set": bson.M{"booking_id": bookingID}})
	if err != nil {
		return fmt.Errorf("failed to link event %s: %w", eventID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("event %s not found", eventID)
	}
	return nil
}

func (r *MongoEventRepo) ClearBookingLinks(ctx context.Context, bookingID string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"booking_id": bookingID},
		bson.M{"$set": bson.M{"booking_id": ""}},
	)
	if err != nil {
		return fmt.Errorf("failed to clear event links for booking %s: %w", bookingID, err)
	}
	return nil
}

func (r *MongoEventRepo) find(ctx context.Context, filter bson.M) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}
