package repository

import (
	"database/sql"

	"github.com/bengkelhub/wa-bridge/internal/model"
)

// TemplateRepositoryInterface defines follow-up template access.
type TemplateRepositoryInterface interface {
	GetDefaultActive(trigger string) (*model.FollowUpTemplate, error)
	IncrementUsage(id int64) error
}

type TemplateRepository struct {
	DB *sql.DB
}

// GetDefaultActive returns the first active, whatsapp-enabled template for
// the trigger, nil when none is configured.
func (r *TemplateRepository) GetDefaultActive(trigger string) (*model.FollowUpTemplate, error) {
	query := `
        SELECT id, name, trigger_event, body, active, whatsapp_enabled, auto_send,
               delay_minutes, usage_count, last_used_at, created_at, updated_at
        FROM followup_templates
        WHERE trigger_event = $1 AND active = TRUE AND whatsapp_enabled = TRUE
        ORDER BY id
        LIMIT 1
    `
	var t model.FollowUpTemplate
	err := r.DB.QueryRow(query, trigger).Scan(
		&t.ID, &t.Name, &t.Trigger, &t.Body, &t.Active, &t.WhatsAppEnabled,
		&t.AutoSend, &t.DelayMinutes, &t.UsageCount, &t.LastUsedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// IncrementUsage bumps the usage counter after a successful dispatch.
func (r *TemplateRepository) IncrementUsage(id int64) error {
	query := `UPDATE followup_templates SET usage_count = usage_count + 1, last_used_at = NOW(), updated_at = NOW() WHERE id = $1`
	_, err := r.DB.Exec(query, id)
	return err
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
