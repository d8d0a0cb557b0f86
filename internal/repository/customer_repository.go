package repository

import (
	"database/sql"
	"time"

	"github.com/bengkelhub/wa-bridge/internal/model"
)

// CustomerRepositoryInterface defines customer access used by the
// follow-up scheduler and dispatch worker.
type CustomerRepositoryInterface interface {
	GetByID(id int64) (*model.Customer, error)
	ListEligibleForFollowUp(trigger string, staleBefore, cooldownSince time.Time, limit int) ([]model.Customer, error)
	GetLatestService(customerID int64) (*model.ServiceRecord, error)
}

// CustomerRepository is the concrete implementation.
type CustomerRepository struct {
	DB *sql.DB
}

// GetByID fetches a customer by ID.
func (r *CustomerRepository) GetByID(id int64) (*model.Customer, error) {
	query := `
        SELECT id, name, phone, vehicle_info, active, last_service_at
        FROM customers
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var c model.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.VehicleInfo, &c.Active, &c.LastServiceAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

// ListEligibleForFollowUp selects active customers with at least one prior
// service whose last service is null or older than staleBefore, excluding
// anyone with a sent follow-up for the trigger since cooldownSince.
// Cancelled and failed entries do not block re-scheduling.
func (r *CustomerRepository) ListEligibleForFollowUp(trigger string, staleBefore, cooldownSince time.Time, limit int) ([]model.Customer, error) {
	query := `
        SELECT c.id, c.name, c.phone, c.vehicle_info, c.active, c.last_service_at
        FROM customers c
        WHERE c.active = TRUE
          AND EXISTS (
              SELECT 1 FROM service_records s WHERE s.customer_id = c.id
          )
          AND (c.last_service_at IS NULL OR c.last_service_at < $1)
          AND NOT EXISTS (
              SELECT 1 FROM followup_queue f
              WHERE f.customer_id = c.id
                AND f.trigger_event = $2
                AND f.status = 'sent'
                AND f.created_at > $3
          )
        ORDER BY c.last_service_at NULLS FIRST
        LIMIT $4
    `
	rows, err := r.DB.Query(query, staleBefore, trigger, cooldownSince, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.VehicleInfo, &c.Active, &c.LastServiceAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// GetLatestService returns the customer's most recent completed service,
// nil when they have none.
func (r *CustomerRepository) GetLatestService(customerID int64) (*model.ServiceRecord, error) {
	query := `
        SELECT id, customer_id, service_type, vehicle_info, total_cost, completed_at
        FROM service_records
        WHERE customer_id = $1
        ORDER BY completed_at DESC
        LIMIT 1
    `
	var s model.ServiceRecord
	err := r.DB.QueryRow(query, customerID).Scan(
		&s.ID, &s.CustomerID, &s.ServiceType, &s.VehicleInfo, &s.TotalCost, &s.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
