package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/jask/croissant/internal/database"
)

// MaintenanceService houses destructive actions surfaced through the TUI.
type MaintenanceService struct {
	DB *sql.DB
}

// Reset empties the cache. The schema is kept so the app can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, t := range []string{"followed_users", "posts"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, "VACUUM"); err != nil {
		log.Printf("maintenance: vacuum: %v", err)
	}
	return nil
}
