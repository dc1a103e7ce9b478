package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// SaleLine is the immutable snapshot of one cart line at the time of sale.
type SaleLine struct {
	Name  string          `json:"name"`
	Qty   int             `json:"qty"`
	Price decimal.Decimal `json:"price"`
}

// SaleLines stores the full cart snapshot as a jsonb column.
type SaleLines []SaleLine

func (l *SaleLines) Scan(src any) error {
	if src == nil {
		*l = SaleLines{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("SaleLines: unsupported Scan type %T", src)
	}
}

func (l SaleLines) Value() (driver.Value, error) {
	if l == nil {
		l = SaleLines{}
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("SaleLines: marshal: %w", err)
	}
	return string(raw), nil
}
