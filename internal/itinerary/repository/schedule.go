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

	itineraryerrors "tripflow/internal/itinerary/errors"
	"tripflow/pkg/config"
	mongotx "tripflow/pkg/db/mongo"
	"tripflow/pkg/model"
)

const (
	CollectionName = "Schedules"
)

type mongoScheduleRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ScheduleRepository interface {
	FindByTripID(ctx context.Context, tripID string) (*model.ScheduleDocument, error)
	Upsert(ctx context.Context, tripID string, data *model.ScheduleData) (*model.ScheduleDocument, error)
	DeleteVisit(ctx context.Context, tripID, dayID, visitID string) (*model.ScheduleDocument, error)
	DeleteByTripID(ctx context.Context, tripID string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoScheduleRepository(cfg *config.Config) ScheduleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoScheduleRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction. A SessionContext cannot be wrapped without breaking
// transaction semantics, so it is returned unchanged with a no-op cancel.
func (r *mongoScheduleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoScheduleRepository) FindByTripID(ctx context.Context, tripID string) (*model.ScheduleDocument, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if tripID == "" {
		return nil, itineraryerrors.ErrInvalidID
	}

	filter := bson.M{"trip_id": tripID}

	var doc model.ScheduleDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, itineraryerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find schedule: %w", err)
	}

	return &doc, nil
}

// Upsert replaces the full schedule body for a trip and increments its
// version. The write is last-write-wins: the version is not used as a
// compare-and-set guard.
func (r *mongoScheduleRepository) Upsert(ctx context.Context, tripID string, data *model.ScheduleData) (*model.ScheduleDocument, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if tripID == "" {
		return nil, itineraryerrors.ErrInvalidID
	}

	now := time.Now().UTC().Truncate(time.Millisecond)

	filter := bson.M{"trip_id": tripID}
	update := bson.M{
		"$set": bson.M{
			"schedule_data": data,
			"updated_at":    now,
		},
		"$inc": bson.M{"version": 1},
		"$setOnInsert": bson.M{
			// String ids keep _id decodable into the model; mongo would
			// otherwise mint an ObjectID here.
			"_id":        primitive.NewObjectID().Hex(),
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc model.ScheduleDocument
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert schedule: %w", err)
	}

	return &doc, nil
}

// DeleteVisit removes a single visit from a day inside a transaction, so a
// concurrent full-schedule save cannot interleave between the read and the
// write. Deleting a visit that is already gone is a no-op.
func (r *mongoScheduleRepository) DeleteVisit(ctx context.Context, tripID, dayID, visitID string) (*model.ScheduleDocument, error) {
	if tripID == "" || dayID == "" || visitID == "" {
		return nil, itineraryerrors.ErrInvalidID
	}

	var updated *model.ScheduleDocument
	err := r.txManager.ExecuteTransaction(ctx, func(sc mongo.SessionContext) error {
		doc, err := r.FindByTripID(sc, tripID)
		if err != nil {
			return err
		}

		changed := false
		for i := range doc.ScheduleData.Days {
			day := &doc.ScheduleData.Days[i]
			if day.DayID != dayID {
				continue
			}
			for j, loc := range day.Locations {
				if loc.ID == visitID {
					day.Locations = append(day.Locations[:j], day.Locations[j+1:]...)
					changed = true
					break
				}
			}
			break
		}

		if !changed {
			updated = doc
			return nil
		}

		updated, err = r.Upsert(sc, tripID, &doc.ScheduleData)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *mongoScheduleRepository) DeleteByTripID(ctx context.Context, tripID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if tripID == "" {
		return itineraryerrors.ErrInvalidID
	}

	_, err := r.collection.DeleteOne(ctx, bson.M{"trip_id": tripID})
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

func (r *mongoScheduleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
