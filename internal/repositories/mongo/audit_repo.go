package mongo

import (
	"context"
	"time"

	"github.com/tabletalk/voicegate/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditRepository persists turn-level and session-level audit records.
// These are write-only from the engine's perspective (Non-goal b): the
// pipeline never reads them back into LLM context.
type AuditRepository interface {
	InsertEvent(ctx context.Context, e *models.SessionEvent) error
	InsertTurn(ctx context.Context, t *models.TurnRecord) error
	ListEventsBySession(ctx context.Context, sessionID string, limit int64) ([]models.SessionEvent, error)
}

type auditRepo struct {
	events *mongo.Collection
	turns  *mongo.Collection
}

func NewAuditRepo(db *mongo.Database) AuditRepository {
	return &auditRepo{
		events: db.Collection("session_events"),
		turns:  db.Collection("turn_records"),
	}
}

func (r *auditRepo) InsertEvent(ctx context.Context, e *models.SessionEvent) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := r.events.InsertOne(ctx, e)
	return err
}

func (r *auditRepo) InsertTurn(ctx context.Context, t *models.TurnRecord) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.ExpiresAt.IsZero() {
		t.ExpiresAt = t.CreatedAt.Add(30 * 24 * time.Hour)
	}
	_, err := r.turns.InsertOne(ctx, t)
	return err
}

func (r *auditRepo) ListEventsBySession(ctx context.Context, sessionID string, limit int64) ([]models.SessionEvent, error) {
	if limit <= 0 {
		limit = 200
	}
	cur, err := r.events.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SessionEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
