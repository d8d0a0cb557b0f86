// internal/model/customer.go
package model

import "time"

// Customer is a read-side projection of the workshop customer record,
// limited to what the messaging bridge needs.
type Customer struct {
	ID            int64      `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Phone         string     `db:"phone" json:"phone"`
	VehicleInfo   string     `db:"vehicle_info" json:"vehicle_info"`
	Active        bool       `db:"active" json:"active"`
	LastServiceAt *time.Time `db:"last_service_at" json:"last_service_at,omitempty"`
}

// ServiceRecord is a completed workshop service for a customer.
type ServiceRecord struct {
	ID          int64     `db:"id" json:"id"`
	CustomerID  int64     `db:"customer_id" json:"customer_id"`
	ServiceType string    `db:"service_type" json:"service_type"`
	VehicleInfo string    `db:"vehicle_info" json:"vehicle_info"`
	TotalCost   float64   `db:"total_cost" json:"total_cost"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}
