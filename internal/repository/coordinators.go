package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
)

func (r *Repository) GetCoordinatorByUsername(username string) (*domain.Coordinator, error) {
	query := `
		SELECT id, password_hash, full_name, created_at, version
		FROM coordinators WHERE username = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	coordinator := &domain.Coordinator{
		Username: username,
	}

	dst := []any{&coordinator.ID, &coordinator.PasswordHash, &coordinator.FullName, &coordinator.CreatedAt, &coordinator.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}

	return coordinator, nil
}

func (r *Repository) CreateCoordinator(coordinator *domain.Coordinator) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO coordinators (username, password_hash, full_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	args := []any{coordinator.Username, coordinator.PasswordHash, coordinator.FullName}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&coordinator.ID, &coordinator.CreatedAt, &coordinator.Version); err != nil {
		return err
	}

	return nil
}
