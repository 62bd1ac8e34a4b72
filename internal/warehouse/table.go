// Package warehouse owns the destination side of a sync: provisioning
// per-object destination tables and writing record batches into them
// idempotently.
package warehouse

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Fixed destination columns. Provider payloads never collide with these:
// everything coming from the wire lands inside raw_data or
// _unisync_unified_data.
const (
	ColApplicationID = "_unisync_application_id"
	ColProviderName  = "_unisync_provider_name"
	ColCustomerID    = "_unisync_customer_id"
	ColEmittedAt     = "_unisync_emitted_at"
	ColID            = "id"
	ColCreatedAt     = "created_at"
	ColUpdatedAt     = "updated_at"
	ColIsDeleted     = "is_deleted"
	ColLastModified  = "last_modified_at"
	ColRawData       = "raw_data"
	ColUnifiedData   = "_unisync_unified_data"
)

// KeyColumns is the destination primary key: one row per record per
// connection per application.
var KeyColumns = []string{ColApplicationID, ColProviderName, ColCustomerID, ColID}

type Destination struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewDestination(db *gorm.DB, logger *zap.Logger) *Destination {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Destination{db: db, logger: logger}
}

// TableName is {vertical}_{objectType}, e.g. crm_account.
func TableName(vertical, objectType string) string {
	return vertical + "_" + objectType
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// EnsureSchema creates the destination schema when it does not exist yet.
// Empty means the connection's default schema.
func (d *Destination) EnsureSchema(ctx context.Context, schema string) error {
	if schema == "" {
		return nil
	}
	if !validIdent(schema) {
		return fmt.Errorf("warehouse: invalid schema name %q", schema)
	}
	d.logger.Debug("ensuring destination schema", zap.String("schema", schema))
	return d.db.WithContext(ctx).Exec("CREATE SCHEMA IF NOT EXISTS " + schema).Error
}

// EnsureTable provisions the destination table for one object type and
// returns its (possibly schema-qualified) name. Provisioning is additive
// and idempotent.
func (d *Destination) EnsureTable(ctx context.Context, schema, vertical, objectType string) (string, error) {
	name := TableName(vertical, objectType)
	if !validIdent(name) {
		return "", fmt.Errorf("warehouse: invalid table name %q", name)
	}
	qualified := name
	if schema != "" {
		qualified = schema + "." + name
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  %s text NOT NULL,
  %s text NOT NULL,
  %s text NOT NULL,
  %s timestamptz NOT NULL,
  %s text NOT NULL,
  %s timestamptz,
  %s timestamptz,
  %s boolean DEFAULT false NOT NULL,
  %s timestamptz NOT NULL,
  %s jsonb,
  %s jsonb,
  CONSTRAINT %s_pkey PRIMARY KEY (%s)
)`,
		qualified,
		ColApplicationID,
		ColProviderName,
		ColCustomerID,
		ColEmittedAt,
		ColID,
		ColCreatedAt,
		ColUpdatedAt,
		ColIsDeleted,
		ColLastModified,
		ColRawData,
		ColUnifiedData,
		name,
		strings.Join(KeyColumns, ", "),
	)
	if err := d.db.WithContext(ctx).Exec(ddl).Error; err != nil {
		return "", fmt.Errorf("warehouse: ensure table %s: %w", qualified, err)
	}
	d.logger.Debug("ensured destination table", zap.String("table", qualified))
	return qualified, nil
}
