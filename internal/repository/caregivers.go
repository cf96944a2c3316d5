package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
)

func (r *Repository) GetCaregiversByRole(ctx context.Context, role domain.CaregiverRole) ([]*domain.Caregiver, error) {
	query := `
		SELECT id, full_name, role, phone, created_at
		FROM caregivers WHERE role = $1
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	caregivers := make([]*domain.Caregiver, 0)
	for rows.Next() {
		caregiver := &domain.Caregiver{}
		dst := []any{&caregiver.ID, &caregiver.FullName, &caregiver.Role, &caregiver.Phone, &caregiver.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		caregivers = append(caregivers, caregiver)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return caregivers, nil
}

func (r *Repository) GetCaregiverByPhone(ctx context.Context, phone string) (*domain.Caregiver, error) {
	query := `
		SELECT id, full_name, role, created_at
		FROM caregivers WHERE phone = $1
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	caregiver := &domain.Caregiver{
		Phone: phone,
	}

	dst := []any{&caregiver.ID, &caregiver.FullName, &caregiver.Role, &caregiver.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, phone).Scan(dst...); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, domain.ErrCaregiverNotFound
		default:
			return nil, err
		}
	}

	return caregiver, nil
}

func (r *Repository) CreateCaregiver(ctx context.Context, caregiver *domain.Caregiver) error {
	query := `
		INSERT INTO caregivers (full_name, role, phone)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{caregiver.FullName, caregiver.Role, caregiver.Phone}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&caregiver.ID, &caregiver.CreatedAt); err != nil {
		return err
	}

	return nil
}
