package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/opticlab/labres-api/internal/models"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
)

const deviceColumns = "id, device_type, device_name, status, ip_address, out_port, in_port, maintenance_start, maintenance_end, created_at, updated_at"

// DeviceRepository manages persistence for physical lab devices.
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository constructs a DeviceRepository.
func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// List returns devices matching the filter, ordered by type then name.
func (r *DeviceRepository) List(ctx context.Context, filter models.DeviceFilter) ([]models.Device, error) {
	query := "SELECT " + deviceColumns + " FROM devices WHERE 1=1"
	var args []interface{}

	if filter.Type != "" {
		query += fmt.Sprintf(" AND LOWER(device_type) = LOWER($%d)", len(args)+1)
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND LOWER(device_name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query += " ORDER BY device_type, device_name"

	var devices []models.Device
	if err := r.db.SelectContext(ctx, &devices, query, args...); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// FindByID fetches a device by ID.
func (r *DeviceRepository) FindByID(ctx context.Context, id int64) (*models.Device, error) {
	const query = "SELECT " + deviceColumns + " FROM devices WHERE id = $1"
	var device models.Device
	if err := r.db.GetContext(ctx, &device, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("device %d not found", id))
		}
		return nil, fmt.Errorf("find device %d: %w", id, err)
	}
	return &device, nil
}

// Types returns the distinct device types in the inventory.
func (r *DeviceRepository) Types(ctx context.Context) ([]string, error) {
	const query = "SELECT DISTINCT device_type FROM devices ORDER BY device_type"
	var types []string
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list device types: %w", err)
	}
	return types, nil
}
