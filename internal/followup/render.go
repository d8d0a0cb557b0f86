// internal/followup/render.go
package followup

import (
	"fmt"
	"strings"

	"github.com/bengkelhub/wa-bridge/internal/config"
	"github.com/bengkelhub/wa-bridge/internal/model"
)

// Render substitutes {placeholder} variables in a template body. Unknown
// placeholders are left as-is; empty values render as "-" so messages
// never show blank gaps.
func Render(template string, vars map[string]string) string {
	result := template
	for k, v := range vars {
		if v == "" {
			v = "-"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// BuildVariables assembles the template variable set for one customer and
// their most recent service.
func BuildVariables(c *model.Customer, svc *model.ServiceRecord, w config.WorkshopConfig) map[string]string {
	vars := map[string]string{
		"customer_name":    c.Name,
		"workshop_name":    w.Name,
		"workshop_phone":   w.Phone,
		"workshop_address": w.Address,
	}
	if svc != nil {
		vehicle := svc.VehicleInfo
		if vehicle == "" {
			vehicle = c.VehicleInfo
		}
		vars["service_type"] = svc.ServiceType
		vars["vehicle_info"] = vehicle
		vars["completion_date"] = svc.CompletedAt.Format("02-01-2006")
		vars["total_cost"] = formatRupiah(svc.TotalCost)
	}
	return vars
}

// formatRupiah renders an amount as "Rp 1.250.000".
func formatRupiah(amount float64) string {
	digits := fmt.Sprintf("%.0f", amount)
	if len(digits) == 0 || digits[0] == '-' {
		return "Rp " + digits
	}
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return "Rp " + b.String()
}
