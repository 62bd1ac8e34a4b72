package hubspot

import (
	"strconv"
	"strings"

	"unisync/internal/mapper"
)

var companyFields = []string{
	"hubspot_owner_id",
	"description",
	"industry",
	"website",
	"domain",
	"hs_additional_domains",
	"numberofemployees",
	"address",
	"address2",
	"city",
	"state",
	"country",
	"zip",
	"phone",
	"notes_last_updated",
	"lifecyclestage",
	"createddate",
}

var dealFields = []string{
	"dealname",
	"description",
	"dealstage",
	"amount",
	"hubspot_owner_id",
	"notes_last_updated",
	"closedate",
	"pipeline",
	"hs_is_closed_won",
	"hs_is_closed",
}

func strProp(raw map[string]any, key string) string {
	props, _ := raw["properties"].(map[string]any)
	if props == nil {
		return ""
	}
	s, _ := props[key].(string)
	return s
}

var accountMapping = mapper.Mapping{
	"id":         mapper.KeyPath("id"),
	"updated_at": mapper.KeyPath("updatedAt"),
	"is_deleted": mapper.Func(func(raw map[string]any) (any, error) {
		archived, _ := raw["archived"].(bool)
		return archived, nil
	}),
	"name":     mapper.KeyPath("properties.name"),
	"website":  mapper.KeyPath("properties.website"),
	"industry": mapper.KeyPath("properties.industry"),
	"number_of_employees": mapper.Func(func(raw map[string]any) (any, error) {
		s := strProp(raw, "numberofemployees")
		if s == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, nil
		}
		return n, nil
	}),
	"owner_id":         mapper.KeyPath("properties.hubspot_owner_id"),
	"lifecycle_stage":  mapper.KeyPath("properties.lifecyclestage"),
	"created_at":       mapper.KeyPath("createdAt"),
	"last_modified_at": mapper.KeyPath("updatedAt"),
}

var contactMapping = mapper.Mapping{
	"id":         mapper.KeyPath("id"),
	"updated_at": mapper.KeyPath("updatedAt"),
	"is_deleted": mapper.Func(func(raw map[string]any) (any, error) {
		archived, _ := raw["archived"].(bool)
		return archived, nil
	}),
	"first_name":       mapper.KeyPath("properties.firstname"),
	"last_name":        mapper.KeyPath("properties.lastname"),
	"created_at":       mapper.KeyPath("createdAt"),
	"last_modified_at": mapper.KeyPath("updatedAt"),
	"email_addresses": mapper.Func(func(raw map[string]any) (any, error) {
		email := strProp(raw, "email")
		if email == "" {
			return []any{}, nil
		}
		return []any{map[string]any{
			"email_address":      email,
			"email_address_type": "primary",
		}}, nil
	}),
}

var opportunityMapping = mapper.Mapping{
	"id":          mapper.KeyPath("id"),
	"updated_at":  mapper.KeyPath("updatedAt"),
	"name":        mapper.KeyPath("properties.dealname"),
	"description": mapper.KeyPath("properties.description"),
	"owner_id":    mapper.KeyPath("properties.hubspot_owner_id"),
	"status": mapper.Func(func(raw map[string]any) (any, error) {
		if strProp(raw, "hs_is_closed_won") == "true" {
			return "WON", nil
		}
		if strProp(raw, "hs_is_closed") == "true" {
			return "LOST", nil
		}
		return "Open", nil
	}),
	"stage":      mapper.KeyPath("properties.dealstage"),
	"close_date": mapper.KeyPath("properties.closedate"),
	"amount":     mapper.KeyPath("properties.amount"),
	"pipeline":   mapper.KeyPath("properties.pipeline"),
	"is_deleted": mapper.Func(func(raw map[string]any) (any, error) {
		archived, _ := raw["archived"].(bool)
		return archived, nil
	}),
	"created_at":       mapper.KeyPath("properties.createdate"),
	"last_modified_at": mapper.KeyPath("updatedAt"),
}

var userMapping = mapper.Mapping{
	"id":         mapper.KeyPath("id"),
	"updated_at": mapper.KeyPath("updatedAt"),
	"email":      mapper.KeyPath("email"),
	"name": mapper.Func(func(raw map[string]any) (any, error) {
		first, _ := raw["firstName"].(string)
		last, _ := raw["lastName"].(string)
		parts := make([]string, 0, 2)
		for _, p := range []string{first, last} {
			if strings.TrimSpace(p) != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, " "), nil
	}),
	"is_active": mapper.Func(func(raw map[string]any) (any, error) {
		archived, _ := raw["archived"].(bool)
		return !archived, nil
	}),
	"is_deleted": mapper.Func(func(raw map[string]any) (any, error) {
		archived, _ := raw["archived"].(bool)
		return archived, nil
	}),
	"created_at":       mapper.KeyPath("createdAt"),
	"last_modified_at": mapper.KeyPath("updatedAt"),
}
