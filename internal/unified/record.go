package unified

import (
	"fmt"
	"time"
)

const (
	VerticalCRM        = "crm"
	VerticalEngagement = "engagement"
)

// Common object types per vertical. The destination table for a pair is
// named {vertical}_{objectType}, e.g. crm_account.
var (
	CRMObjectTypes        = []string{"account", "contact", "lead", "opportunity", "user"}
	EngagementObjectTypes = []string{"contact", "sequence"}
)

func ObjectTypesFor(vertical string) []string {
	switch vertical {
	case VerticalCRM:
		return CRMObjectTypes
	case VerticalEngagement:
		return EngagementObjectTypes
	default:
		return nil
	}
}

func ValidVertical(vertical string) bool {
	return vertical == VerticalCRM || vertical == VerticalEngagement
}

// Record is the provider-agnostic shape of one entity. ID is unique within a
// (customer, provider, object type) scope only. UpdatedAt is the last
// modification time at the source, RFC3339.
type Record struct {
	ID        string
	UpdatedAt string
	IsDeleted bool

	// Data is the full mapped payload, including id/updated_at.
	Data map[string]any
	// RawData is the original provider payload, kept for reprocessing.
	RawData map[string]any
}

// FromMapped lifts a mapper output into a Record, pulling the mandatory
// fields out of the mapped payload.
func FromMapped(mapped, raw map[string]any) (Record, error) {
	rec := Record{Data: mapped, RawData: raw}

	id, ok := mapped["id"].(string)
	if !ok || id == "" {
		return rec, fmt.Errorf("mapped record missing string id: %v", mapped["id"])
	}
	rec.ID = id

	switch v := mapped["updated_at"].(type) {
	case string:
		rec.UpdatedAt = v
	case time.Time:
		rec.UpdatedAt = v.UTC().Format(time.RFC3339)
		mapped["updated_at"] = rec.UpdatedAt
	case nil:
	default:
		return rec, fmt.Errorf("mapped record has non-string updated_at: %T", v)
	}

	if del, ok := mapped["is_deleted"].(bool); ok {
		rec.IsDeleted = del
	}
	return rec, nil
}

// LastModifiedAt parses UpdatedAt, falling back to the given time when the
// source did not report a usable timestamp.
func (r Record) LastModifiedAt(fallback time.Time) time.Time {
	if r.UpdatedAt == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z0700", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, r.UpdatedAt); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
