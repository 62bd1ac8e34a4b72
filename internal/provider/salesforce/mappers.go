package salesforce

import (
	"fmt"

	"github.com/shopspring/decimal"

	"unisync/internal/mapper"
)

var accountFields = []string{
	"OwnerId", "Name", "Description", "Industry", "Website", "NumberOfEmployees",
	"BillingCity", "BillingCountry", "BillingPostalCode", "BillingState", "BillingStreet",
	"ShippingCity", "ShippingCountry", "ShippingPostalCode", "ShippingState", "ShippingStreet",
	"Phone", "Fax", "LastActivityDate", "CreatedDate", "IsDeleted",
}

var contactFields = []string{
	"OwnerId", "AccountId", "FirstName", "LastName", "Email", "Phone", "Fax", "MobilePhone",
	"LastActivityDate", "MailingCity", "MailingCountry", "MailingPostalCode", "MailingState",
	"MailingStreet", "OtherCity", "OtherCountry", "OtherPostalCode", "OtherState", "OtherStreet",
	"IsDeleted", "CreatedDate",
}

var leadFields = []string{
	"OwnerId", "Title", "FirstName", "LastName", "ConvertedDate", "CreatedDate",
	"ConvertedContactId", "ConvertedAccountId", "Company", "City", "State", "Street",
	"Country", "PostalCode", "Phone", "Email", "IsDeleted",
}

var opportunityFields = []string{
	"OwnerId", "Name", "Description", "LastActivityDate", "Amount", "IsClosed", "IsDeleted",
	"IsWon", "StageName", "CloseDate", "CreatedDate", "AccountId",
}

var userFields = []string{"Name", "Email", "IsActive", "CreatedDate"}

var accountMapping = mapper.Mapping{
	"id":                  mapper.KeyPath("Id"),
	"updated_at":          mapper.KeyPath("SystemModstamp"),
	"name":                mapper.KeyPath("Name"),
	"is_deleted":          mapper.KeyPath("IsDeleted"),
	"website":             mapper.KeyPath("Website"),
	"industry":            mapper.KeyPath("Industry"),
	"number_of_employees": mapper.KeyPath("NumberOfEmployees"),
	"owner_id":            mapper.KeyPath("OwnerId"),
	"created_at":          mapper.KeyPath("CreatedDate"),
}

var contactMapping = mapper.Mapping{
	"id":         mapper.KeyPath("Id"),
	"updated_at": mapper.KeyPath("SystemModstamp"),
	"first_name": mapper.KeyPath("FirstName"),
	"last_name":  mapper.KeyPath("LastName"),
	"account_id": mapper.KeyPath("AccountId"),
	"owner_id":   mapper.KeyPath("OwnerId"),
	"is_deleted": mapper.KeyPath("IsDeleted"),
	"email_addresses": mapper.Func(func(raw map[string]any) (any, error) {
		email, _ := raw["Email"].(string)
		if email == "" {
			return []any{}, nil
		}
		return []any{map[string]any{"email_address": email, "email_address_type": "primary"}}, nil
	}),
	"created_at": mapper.KeyPath("CreatedDate"),
}

var leadMapping = mapper.Mapping{
	"id":                   mapper.KeyPath("Id"),
	"updated_at":           mapper.KeyPath("SystemModstamp"),
	"first_name":           mapper.KeyPath("FirstName"),
	"last_name":            mapper.KeyPath("LastName"),
	"owner_id":             mapper.KeyPath("OwnerId"),
	"title":                mapper.KeyPath("Title"),
	"company":              mapper.KeyPath("Company"),
	"converted_date":       mapper.KeyPath("ConvertedDate"),
	"converted_account_id": mapper.KeyPath("ConvertedAccountId"),
	"converted_contact_id": mapper.KeyPath("ConvertedContactId"),
	"is_deleted":           mapper.KeyPath("IsDeleted"),
	"created_at":           mapper.KeyPath("CreatedDate"),
	"addresses": mapper.Func(func(raw map[string]any) (any, error) {
		street, _ := raw["Street"].(string)
		city, _ := raw["City"].(string)
		state, _ := raw["State"].(string)
		country, _ := raw["Country"].(string)
		postal, _ := raw["PostalCode"].(string)
		if street == "" && city == "" && state == "" && country == "" && postal == "" {
			return []any{}, nil
		}
		return []any{map[string]any{
			"street1":      street,
			"city":         city,
			"state":        state,
			"country":      country,
			"postal_code":  postal,
			"address_type": "primary",
		}}, nil
	}),
	"email_addresses": mapper.Func(func(raw map[string]any) (any, error) {
		email, _ := raw["Email"].(string)
		if email == "" {
			return []any{}, nil
		}
		return []any{map[string]any{"email_address": email, "email_address_type": "primary"}}, nil
	}),
	"phone_numbers": mapper.Func(func(raw map[string]any) (any, error) {
		phone, _ := raw["Phone"].(string)
		if phone == "" {
			return []any{}, nil
		}
		return []any{map[string]any{"phone_number": phone, "phone_number_type": "primary"}}, nil
	}),
}

var opportunityMapping = mapper.Mapping{
	"id":          mapper.KeyPath("Id"),
	"updated_at":  mapper.KeyPath("SystemModstamp"),
	"name":        mapper.KeyPath("Name"),
	"description": mapper.KeyPath("Description"),
	"owner_id":    mapper.KeyPath("OwnerId"),
	"stage":       mapper.KeyPath("StageName"),
	"close_date":  mapper.KeyPath("CloseDate"),
	"account_id":  mapper.KeyPath("AccountId"),
	"is_deleted":  mapper.KeyPath("IsDeleted"),
	"created_at":  mapper.KeyPath("CreatedDate"),
	"status": mapper.Func(func(raw map[string]any) (any, error) {
		if closed, _ := raw["IsClosed"].(bool); closed {
			return "Closed", nil
		}
		return "Open", nil
	}),
	"amount": mapper.Func(func(raw map[string]any) (any, error) {
		return normalizeAmount(raw["Amount"])
	}),
}

var userMapping = mapper.Mapping{
	"id":         mapper.KeyPath("Id"),
	"updated_at": mapper.KeyPath("SystemModstamp"),
	"name":       mapper.KeyPath("Name"),
	"email":      mapper.KeyPath("Email"),
	"is_active":  mapper.KeyPath("IsActive"),
	"created_at": mapper.KeyPath("CreatedDate"),
}

// normalizeAmount renders provider money values as a decimal string, so
// float wobble from JSON decoding never lands in the unified payload.
func normalizeAmount(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return decimal.NewFromFloat(n).String(), nil
	case string:
		if n == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(n)
		if err != nil {
			return nil, fmt.Errorf("unparseable amount %q: %w", n, err)
		}
		return d.String(), nil
	default:
		return nil, fmt.Errorf("unexpected amount type %T", v)
	}
}
