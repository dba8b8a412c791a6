package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/webinar-system/internal/core/domain"
)

const collectionWebinars = "webinars"

// WebinarRepository implements ports.WebinarRepository using MongoDB.
type WebinarRepository struct {
	col *mongo.Collection
}

func NewWebinarRepository(db *mongo.Database) *WebinarRepository {
	return &WebinarRepository{col: db.Collection(collectionWebinars)}
}

// webinarDocument is the stored shape; the webinar id doubles as _id.
type webinarDocument struct {
	ID          string    `bson:"_id"`
	OrganizerID string    `bson:"organizer_id"`
	Title       string    `bson:"title"`
	StartDate   time.Time `bson:"start_date"`
	EndDate     time.Time `bson:"end_date"`
	Seats       int       `bson:"seats"`
}

func toDocument(w *domain.Webinar) webinarDocument {
	p := w.Props()
	return webinarDocument{
		ID:          p.ID,
		OrganizerID: p.OrganizerID,
		Title:       p.Title,
		StartDate:   p.StartDate.UTC(),
		EndDate:     p.EndDate.UTC(),
		Seats:       p.Seats,
	}
}

func (d webinarDocument) toDomain() *domain.Webinar {
	return domain.NewWebinar(domain.WebinarProps{
		ID:          d.ID,
		OrganizerID: d.OrganizerID,
		Title:       d.Title,
		StartDate:   d.StartDate.UTC(),
		EndDate:     d.EndDate.UTC(),
		Seats:       d.Seats,
	})
}

// Create inserts a new webinar document.
func (r *WebinarRepository) Create(ctx context.Context, w *domain.Webinar) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toDocument(w)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrWebinarExists
		}
		return fmt.Errorf("insert webinar: %w", err)
	}
	return nil
}

// FindByID returns (nil, nil) when no document matches.
func (r *WebinarRepository) FindByID(ctx context.Context, id string) (*domain.Webinar, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc webinarDocument
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find webinar: %w", err)
	}
	return doc.toDomain(), nil
}

// Update replaces the whole document. It is a plain last-write-wins replace.
func (r *WebinarRepository) Update(ctx context.Context, w *domain.Webinar) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": w.ID()}, toDocument(w))
	if err != nil {
		return fmt.Errorf("replace webinar: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrWebinarNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the webinars collection.
func (r *WebinarRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "organizer_id", Value: 1}}},
		{Keys: bson.D{{Key: "start_date", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
