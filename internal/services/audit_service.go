package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tabletalk/voicegate/internal/models"
	mongorepo "github.com/tabletalk/voicegate/internal/repositories/mongo"
)

// AuditService records session lifecycle events and completed turns for
// observability. It never feeds records back into the pipeline.
type AuditService interface {
	RecordEvent(ctx context.Context, sessionID, qrToken, event, detail string)
	RecordTurn(ctx context.Context, t *models.TurnRecord)
	ListEvents(ctx context.Context, sessionID string, limit int64) ([]models.SessionEvent, error)
}

type auditService struct {
	repo mongorepo.AuditRepository
	log  *logrus.Logger
}

func NewAuditService(repo mongorepo.AuditRepository, log *logrus.Logger) AuditService {
	return &auditService{repo: repo, log: log}
}

// RecordEvent persists a session lifecycle transition. Persistence
// failures are logged, not returned: audit writes must never block or
// fail the voice turn they describe.
func (s *auditService) RecordEvent(ctx context.Context, sessionID, qrToken, event, detail string) {
	e := &models.SessionEvent{
		SessionID: sessionID,
		QRToken:   qrToken,
		Event:     event,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.InsertEvent(ctx, e); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to insert session event")
	}
}

func (s *auditService) RecordTurn(ctx context.Context, t *models.TurnRecord) {
	if err := s.repo.InsertTurn(ctx, t); err != nil {
		s.log.WithError(err).WithField("session_id", t.SessionID).Warn("failed to insert turn record")
	}
}

// ListEvents backs the staff-facing admin endpoint that inspects a
// session's lifecycle history for support and debugging.
func (s *auditService) ListEvents(ctx context.Context, sessionID string, limit int64) ([]models.SessionEvent, error) {
	return s.repo.ListEventsBySession(ctx, sessionID, limit)
}
