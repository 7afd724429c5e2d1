// README: Intake archive backed by PostgreSQL. Completed submissions are
// inserted for the back office; downstream provisioning happens outside
// this system.
package intake

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"tlx/internal/modules/dialogue"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Archive records a completed submission. Implements dialogue.Archiver.
func (s *Store) Archive(ctx context.Context, sub dialogue.Submission) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO submissions (
            id, session_id, intent, lang,
            name, start_date, end_date, postal_code,
            order_ref, choice, attachments, created_at
        ) VALUES (
            $1, $2, $3, $4,
            $5, $6, $7, $8,
            $9, $10, $11, $12
        )`,
		uuid.NewString(),
		string(sub.SessionID),
		string(sub.Intent),
		string(sub.Lang),
		sub.Details.Name,
		sub.Details.StartDate,
		sub.Details.EndDate,
		sub.Details.PostalCode,
		sub.Details.OrderRef,
		sub.Details.Choice,
		sub.Details.Attachments,
		time.Now().UTC(),
	)
	return err
}
