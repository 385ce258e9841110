package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/garyjia/invoice-service/internal/domain/entity"
)

// encodeItems stores nil or empty item lists as NULL
func encodeItems(items []entity.LineItem) (interface{}, error) {
	if len(items) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode line items: %w", err)
	}
	return string(data), nil
}

func decodeItems(raw sql.NullString) ([]entity.LineItem, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var items []entity.LineItem
	if err := json.Unmarshal([]byte(raw.String), &items); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullableString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// storageError marks a driver failure as STORAGE_UNAVAILABLE
func storageError(err error, msg string) error {
	return apperror.Wrap(apperror.KindStorageUnavailable, err, "%s", msg)
}
