package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRecordTables maps each data type to the tenant table holding it
var DefaultRecordTables = map[integration.DataType]string{
	integration.DataTypeCustomers: "customers",
	integration.DataTypeProducts:  "products",
	integration.DataTypeInvoices:  "invoices",
	integration.DataTypePayments:  "payments",
	integration.DataTypeSales:     "sales",
	integration.DataTypePurchases: "purchases",
	integration.DataTypeInventory: "inventory_items",
}

// GormLocalRecordSource reads tenant business records straight from their
// tables. Every table must have id and tenant_id columns; StampExternalID
// additionally needs external_id and external_system columns.
type GormLocalRecordSource struct {
	db     *gorm.DB
	tables map[integration.DataType]string
}

// NewGormLocalRecordSource creates a source over tables. A nil map uses DefaultRecordTables.
func NewGormLocalRecordSource(db *gorm.DB, tables map[integration.DataType]string) *GormLocalRecordSource {
	if tables == nil {
		tables = DefaultRecordTables
	}
	return &GormLocalRecordSource{db: db, tables: tables}
}

func (s *GormLocalRecordSource) table(dataType integration.DataType) (string, error) {
	t, ok := s.tables[dataType]
	if !ok || t == "" {
		return "", fmt.Errorf("no local table configured for %s: %w", dataType, integration.ErrInvalidDataType)
	}
	return t, nil
}

// ListRecords returns every record of dataType owned by the tenant, ordered by id
func (s *GormLocalRecordSource) ListRecords(ctx context.Context, tenantID uuid.UUID, dataType integration.DataType) ([]integration.LocalRecord, error) {
	table, err := s.table(dataType)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := s.db.WithContext(ctx).
		Table(table).
		Where("tenant_id = ?", tenantID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", dataType, err)
	}

	records := make([]integration.LocalRecord, 0, len(rows))
	for _, row := range rows {
		fields := make(map[string]any, len(row))
		for k, v := range row {
			if k == "id" || k == "tenant_id" {
				continue
			}
			fields[k] = normalizeColumnValue(v)
		}
		records = append(records, integration.LocalRecord{
			ID:       fmt.Sprint(normalizeColumnValue(row["id"])),
			DataType: dataType,
			Fields:   fields,
		})
	}
	return records, nil
}

// StampExternalID writes the external reference onto the local record
func (s *GormLocalRecordSource) StampExternalID(ctx context.Context, tenantID uuid.UUID, dataType integration.DataType, recordID, system, externalID string) error {
	table, err := s.table(dataType)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Table(table).
		Where("tenant_id = ? AND id = ?", tenantID, recordID).
		Updates(map[string]any{
			"external_id":     externalID,
			"external_system": system,
		}).Error
}

// normalizeColumnValue turns driver-specific column values into JSON friendly ones
func normalizeColumnValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return val
	}
}

// Ensure GormLocalRecordSource implements LocalRecordSource
var _ integration.LocalRecordSource = (*GormLocalRecordSource)(nil)
