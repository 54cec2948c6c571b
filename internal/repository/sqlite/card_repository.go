package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/studydeck/studydeck/internal/logger"
	"github.com/studydeck/studydeck/internal/models"
	"github.com/studydeck/studydeck/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var cardColumns = []string{
	"id", "owner_id", "deck_id", "front", "back",
	"ease_factor", "interval_days", "repetitions", "due_at", "created_at",
}

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Insert(ctx context.Context, c models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: id=%s, deck=%s", c.ID, c.DeckID)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO cards (id, owner_id, deck_id, front, back, ease_factor, interval_days, repetitions, due_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, c.ID.String(), c.OwnerID.String(), c.DeckID, c.Front, c.Back,
		c.EaseFactor, c.IntervalDays, c.Repetitions, c.DueAt, c.CreatedAt)
	if err != nil {
		log.Error("failed to insert card: %v", err)
	}
	return err
}

func (r *cardRepository) Get(ctx context.Context, id, ownerID uuid.UUID) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("getting card: id=%s, owner_id=%s", id, ownerID)

	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, deck_id, front, back, ease_factor, interval_days, repetitions, due_at, created_at
FROM cards
WHERE id = ? AND owner_id = ?
`, id.String(), ownerID.String())

	card, err := scanCard(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%s", id)
		return nil, repository.ErrNotFound
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return card, nil
}

func (r *cardRepository) DueCards(ctx context.Context, ownerID uuid.UUID, now time.Time, deckID string, limit int) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("fetching due cards: owner_id=%s, deck=%q, limit=%d", ownerID, deckID, limit)

	query := sqlBuilder.Select(cardColumns...).
		From("cards").
		Where(squirrel.Eq{"owner_id": ownerID.String()}).
		Where(squirrel.LtOrEq{"due_at": now}).
		OrderBy("due_at ASC")
	if deckID != "" {
		query = query.Where(squirrel.Eq{"deck_id": deckID})
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query due cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows.Scan)
		if err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, *card)
	}
	log.Debug("found %d due cards", len(cards))
	return cards, rows.Err()
}

func (r *cardRepository) CountDue(ctx context.Context, ownerID uuid.UUID, now time.Time, deckID string) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	query := sqlBuilder.Select("COUNT(*)").
		From("cards").
		Where(squirrel.Eq{"owner_id": ownerID.String()}).
		Where(squirrel.LtOrEq{"due_at": now})
	if deckID != "" {
		query = query.Where(squirrel.Eq{"deck_id": deckID})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count due cards: %v", err)
		return 0, err
	}
	return count, nil
}

// CommitReview durably stores the new scheduling state. The due_at guard
// keeps scheduling monotonic: a retry with the same state matches (equal
// timestamps pass), while a stale commit that would move the card earlier
// is skipped and reported as not applied.
func (r *cardRepository) CommitReview(ctx context.Context, cardID, ownerID uuid.UUID, state models.SchedulingState) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("committing review: card_id=%s, interval=%d, ease=%.2f", cardID, state.IntervalDays, state.EaseFactor)

	res, err := r.db.ExecContext(ctx, `
UPDATE cards
SET ease_factor = ?, interval_days = ?, repetitions = ?, due_at = ?
WHERE id = ? AND owner_id = ? AND due_at <= ?
`, state.EaseFactor, state.IntervalDays, state.Repetitions, state.DueAt,
		cardID.String(), ownerID.String(), state.DueAt)
	if err != nil {
		log.Error("failed to commit review: %v", err)
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Distinguish a missing card from a commit the guard skipped.
		var existing string
		err := r.db.QueryRowContext(ctx, `SELECT id FROM cards WHERE id = ? AND owner_id = ?`, cardID.String(), ownerID.String()).Scan(&existing)
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found for commit: id=%s", cardID)
			return false, fmt.Errorf("commit review for card %s: %w", cardID, repository.ErrNotFound)
		}
		if err != nil {
			return false, err
		}
		log.Debug("commit skipped, card already scheduled later: id=%s", cardID)
		return false, nil
	}
	return true, nil
}

func (r *cardRepository) ListDecks(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]models.DeckSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing decks: owner_id=%s", ownerID)

	rows, err := r.db.QueryContext(ctx, `
SELECT deck_id,
       COUNT(*) AS card_count,
       SUM(CASE WHEN due_at <= ? THEN 1 ELSE 0 END) AS due_count
FROM cards
WHERE owner_id = ?
GROUP BY deck_id
ORDER BY deck_id
`, now, ownerID.String())
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	defer rows.Close()

	var decks []models.DeckSummary
	for rows.Next() {
		var d models.DeckSummary
		if err := rows.Scan(&d.DeckID, &d.CardCount, &d.DueCount); err != nil {
			log.Error("failed to scan deck row: %v", err)
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

func (r *cardRepository) InsertReviewLog(ctx context.Context, cardID uuid.UUID, quality int, reviewedAt time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting review log: card_id=%s, quality=%d", cardID, quality)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO review_log (card_id, quality, reviewed_at)
VALUES (?, ?, ?)
`, cardID.String(), quality, reviewedAt)
	if err != nil {
		log.Error("failed to insert review log: %v", err)
	}
	return err
}

// scanCard maps one cards row via the given scan function.
func scanCard(scan func(dest ...any) error) (*models.Card, error) {
	var c models.Card
	var id, ownerID string
	if err := scan(&id, &ownerID, &c.DeckID, &c.Front, &c.Back,
		&c.EaseFactor, &c.IntervalDays, &c.Repetitions, &c.DueAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse card id: %w", err)
	}
	if c.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("parse owner id: %w", err)
	}
	return &c, nil
}
