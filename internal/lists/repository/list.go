package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	listserrors "tripflow/internal/lists/errors"
	"tripflow/pkg/config"
	"tripflow/pkg/model"
)

const (
	CollectionName = "Location_lists"
)

type mongoListRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type ListRepository interface {
	Create(ctx context.Context, list *model.LocationList) error
	FindByID(ctx context.Context, id string) (*model.LocationList, error)
	FindByTripID(ctx context.Context, tripID string) ([]*model.LocationList, error)
	Delete(ctx context.Context, id string) error
	AddLocation(ctx context.Context, id string, loc model.CandidateLocation) error
	RemoveLocation(ctx context.Context, id, locationID string) error
}

func NewMongoListRepository(cfg *config.Config) ListRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoListRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoListRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func validateID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%w: %s", listserrors.ErrInvalidID, id)
	}
	return nil
}

func (r *mongoListRepository) Create(ctx context.Context, list *model.LocationList) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	list.ID = primitive.NewObjectID().Hex()
	list.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if list.Locations == nil {
		list.Locations = []model.CandidateLocation{}
	}

	if _, err := r.collection.InsertOne(ctx, list); err != nil {
		return fmt.Errorf("failed to create location list: %w", err)
	}
	return nil
}

func (r *mongoListRepository) FindByID(ctx context.Context, id string) (*model.LocationList, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return nil, err
	}

	var list model.LocationList
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&list)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, listserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find location list: %w", err)
	}

	return &list, nil
}

func (r *mongoListRepository) FindByTripID(ctx context.Context, tripID string) ([]*model.LocationList, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"trip_id": tripID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list location lists: %w", err)
	}
	defer cursor.Close(ctx)

	var lists []*model.LocationList
	if err := cursor.All(ctx, &lists); err != nil {
		return nil, fmt.Errorf("failed to decode location lists: %w", err)
	}
	return lists, nil
}

func (r *mongoListRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete location list: %w", err)
	}
	if result.DeletedCount == 0 {
		return listserrors.ErrNotFound
	}
	return nil
}

func (r *mongoListRepository) AddLocation(ctx context.Context, id string, loc model.CandidateLocation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return err
	}

	update := bson.M{"$push": bson.M{"locations": loc}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to add location: %w", err)
	}
	if result.MatchedCount == 0 {
		return listserrors.ErrNotFound
	}
	return nil
}

func (r *mongoListRepository) RemoveLocation(ctx context.Context, id, locationID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return err
	}

	update := bson.M{"$pull": bson.M{"locations": bson.M{"id": locationID}}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to remove location: %w", err)
	}
	if result.MatchedCount == 0 {
		return listserrors.ErrNotFound
	}
	return nil
}
