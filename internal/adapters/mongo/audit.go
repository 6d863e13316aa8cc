package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/planetarium-reservations/internal/domain"
	"github.com/robertarktes/planetarium-reservations/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	UserID    uuid.UUID `bson:"user_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, action string, userID uuid.UUID, data map[string]interface{}) error {
	log := AuditLog{
		ID:        uuid.New(),
		Action:    action,
		UserID:    userID,
		Timestamp: time.Now(),
		Data:      bson.M(data),
	}
	_, err := a.coll.InsertOne(ctx, log)
	if err != nil {
		a.logger.Error("failed to insert audit log", err)
		return err
	}
	return nil
}

func (a *AuditLogger) LogReservation(ctx context.Context, res domain.Reservation) error {
	seats := make([]bson.M, len(res.Tickets))
	for i, t := range res.Tickets {
		seats[i] = bson.M{"session_id": t.SessionID, "row": t.Row, "seat": t.Seat}
	}
	data := map[string]interface{}{
		"reservation_id": res.ID,
		"created_at":     res.CreatedAt.Format(time.RFC3339),
		"tickets":        seats,
	}
	return a.LogEvent(ctx, "reservation.created", res.UserID, data)
}

func (a *AuditLogger) LogStaffAction(ctx context.Context, userID uuid.UUID, action string, data map[string]interface{}) error {
	return a.LogEvent(ctx, action, userID, data)
}
