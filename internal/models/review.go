package models

import (
	"time"

	"github.com/google/uuid"
)

type ReviewLog struct {
	ID         int64     `json:"id"`
	CardID     uuid.UUID `json:"card_id"`
	Quality    int       `json:"quality"`
	ReviewedAt time.Time `json:"reviewed_at"`
}
