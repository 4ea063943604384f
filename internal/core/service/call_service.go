package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// missedNotifiedSeq marks the dedup slot that guards the single missed-call
// notification of a call, whatever sequence numbers its final events carry.
const missedNotifiedSeq = -1

// MissedCallNotifier tells staff about inbound calls nobody answered.
type MissedCallNotifier interface {
	MissedCall(ctx context.Context, event domain.CallEvent, owners []domain.Owner)
}

type callService struct {
	owners   ports.OwnerRepository
	calls    ports.CallLogRepository
	dedup    ports.CallDedup
	audit    ports.AuditRepository
	realtime ports.RealtimePublisher
	missed   MissedCallNotifier
	log      zerolog.Logger
}

// NewCallService returns a CallService implementation.
func NewCallService(
	owners ports.OwnerRepository,
	calls ports.CallLogRepository,
	dedup ports.CallDedup,
	audit ports.AuditRepository,
	realtime ports.RealtimePublisher,
	missed MissedCallNotifier,
	log zerolog.Logger,
) ports.CallService {
	return &callService{
		owners:   owners,
		calls:    calls,
		dedup:    dedup,
		audit:    audit,
		realtime: realtime,
		missed:   missed,
		log:      log,
	}
}

// Process matches the caller, stores the call log and fans the event out.
func (s *callService) Process(ctx context.Context, ev domain.CallEvent) error {
	if ev.TenantID == "" || ev.ExternalCallID == "" {
		return fmt.Errorf("process call: %w", domain.ErrInvalidCallEvent)
	}

	isDup, err := s.dedup.IsDuplicate(ctx, ev.ExternalCallID, ev.Status, ev.Seq)
	if err != nil {
		s.log.Warn().Err(err).Str("call_id", ev.ExternalCallID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		s.log.Debug().Str("call_id", ev.ExternalCallID).Str("status", string(ev.Status)).Msg("duplicate call event skipped")
		return nil
	}

	phone, hasPhone := domain.NormalizePhone(ev.CustomerNumber())
	var (
		owners   []domain.Owner
		patients []domain.Patient
	)
	if hasPhone {
		owners, err = s.owners.FindByPhone(ctx, ev.TenantID, phone)
		if err != nil {
			return fmt.Errorf("process call: match owner: %w", err)
		}
		if len(owners) > 0 {
			ids := make([]string, 0, len(owners))
			for _, o := range owners {
				ids = append(ids, o.ID)
			}
			patients, err = s.owners.PatientsByOwners(ctx, ev.TenantID, ids)
			if err != nil {
				return fmt.Errorf("process call: load patients: %w", err)
			}
		}
	}

	if markErr := s.dedup.Mark(ctx, ev.ExternalCallID, ev.Status, ev.Seq); markErr != nil {
		s.log.Warn().Err(markErr).Str("call_id", ev.ExternalCallID).Msg("failed to set dedup key")
	}

	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("process call: %w", err)
	}
	entry := &domain.CallLog{
		ID:             id.String(),
		TenantID:       ev.TenantID,
		BranchID:       ev.BranchID,
		ExternalCallID: ev.ExternalCallID,
		Direction:      ev.Direction,
		Status:         ev.Status,
		FromNumber:     ev.FromNumber,
		ToNumber:       ev.ToNumber,
		StartedAt:      ev.StartedAt,
		AnsweredAt:     ev.AnsweredAt,
		EndedAt:        ev.EndedAt,
		Duration:       ev.Duration,
	}
	if len(owners) > 0 {
		entry.OwnerID = owners[0].ID
	}
	if err := s.calls.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("process call: upsert log: %w", err)
	}

	if s.audit != nil {
		auditEntry := domain.AuditEntry{
			Action:   domain.AuditCallReceived,
			TenantID: ev.TenantID,
			BranchID: ev.BranchID,
			Target:   ev.ExternalCallID,
			Details: map[string]string{
				"status":    string(ev.Status),
				"direction": string(ev.Direction),
				"owners":    strconv.Itoa(len(owners)),
			},
			At: time.Now().UTC(),
		}
		if err := s.audit.Insert(ctx, auditEntry); err != nil {
			s.log.Warn().Err(err).Str("call_id", ev.ExternalCallID).Msg("failed to insert audit event")
		}
	}

	delivered := 0
	if ev.ShouldNotify() && s.realtime != nil {
		room := domain.TenantRoom(ev.TenantID)
		if ev.BranchID != "" {
			room = domain.BranchRoom(ev.TenantID, ev.BranchID)
		}
		if patients == nil {
			patients = []domain.Patient{}
		}
		if owners == nil {
			owners = []domain.Owner{}
		}
		delivered = s.realtime.Publish(room, domain.EventIncomingCall, domain.IncomingCall{
			CallID:   ev.ExternalCallID,
			Phone:    phone,
			Owners:   owners,
			Patients: patients,
			At:       ev.StartedAt,
		})
	}

	if ev.Missed() && s.missed != nil && s.firstMissed(ctx, ev.ExternalCallID) {
		s.missed.MissedCall(ctx, ev, owners)
	}

	s.log.Info().
		Str("call_id", ev.ExternalCallID).
		Str("tenant_id", ev.TenantID).
		Str("status", string(ev.Status)).
		Int("owners", len(owners)).
		Int("delivered", delivered).
		Msg("call event processed")

	return nil
}

func (s *callService) firstMissed(ctx context.Context, callID string) bool {
	dup, err := s.dedup.IsDuplicate(ctx, callID, domain.CallMissed, missedNotifiedSeq)
	if err != nil {
		s.log.Warn().Err(err).Str("call_id", callID).Msg("missed-call dedup check failed")
	} else if dup {
		return false
	}
	if err := s.dedup.Mark(ctx, callID, domain.CallMissed, missedNotifiedSeq); err != nil {
		s.log.Warn().Err(err).Str("call_id", callID).Msg("failed to set missed-call dedup key")
	}
	return true
}
