package bookingRepo

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

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates a new instance of BookingRepository using MongoDB.
func NewMongoBookingRepo() BookingRepository {
	coll := database.MongoClient.Database("roomwise").Collection("bookings")
	repo := &MongoBookingRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// ensureIndexes creates indexes for the overlap scan and the per-user queries.
func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start", Value: 1},
			{Key: "end", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "end", Value: 1},
		}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) Update(ctx context.Context, booking *models.Booking) error {
	update := bson.M{"$set": bson.M{
		"room_id":   booking.RoomID,
		"start":     booking.Start,
		"end":       booking.End,
		"title":     booking.Title,
		"attendees": booking.Attendees,
		"status":    booking.Status,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": booking.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update booking %s: %w", booking.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("booking %s not found", booking.ID)
	}
	return nil
}

func (r *MongoBookingRepo) SetStatus(ctx context.Context, id, status string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to set booking %s status: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("booking %s not found", id)
	}
	return nil
}

// FindConflicts applies the half-open overlap rule:
// startA < endB && endA > startB. Touching endpoints do not conflict.
func (r *MongoBookingRepo) FindConflicts(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]models.Booking, error) {
	filter := bson.M{
		"room_id": roomID,
		"status":  models.BookingStatusConfirmed,
		"start":   bson.M{"$lt": end},
		"end":     bson.M{"$gt": start},
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}
	return r.find(ctx, filter, bson.D{{Key: "start", Value: 1}})
}

func (r *MongoBookingRepo) FindByRoomAndDay(ctx context.Context, roomID string, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"room_id": roomID,
		"status":  models.BookingStatusConfirmed,
		"start":   bson.M{"$gte": dayStart},
		"end":     bson.M{"$lte": dayEnd},
	}
	return r.find(ctx, filter, bson.D{{Key: "start", Value: 1}})
}

func (r *MongoBookingRepo) FindUpcomingByUser(ctx context.Context, userID string, now time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  models.BookingStatusConfirmed,
		"end":     bson.M{"$gt": now},
	}
	return r.find(ctx, filter, bson.D{{Key: "start", Value: 1}})
}

func (r *MongoBookingRepo) FindLastCreatedByUser(ctx context.Context, userID string, now time.Time) (*models.Booking, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  models.BookingStatusConfirmed,
		"end":     bson.M{"$gt": now},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var booking models.Booking
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch last booking for user %s: %w", userID, err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Booking, error) {
	opts := options.Find().SetSort(sort)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}
