package types

import (
	"database/sql/driver"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Amount is an unsigned minor-unit quantity covering the full uint64 range.
// It travels as a decimal string because SQL integer types are signed.
type Amount uint64

// Value renders the amount as a base-10 string.
func (a Amount) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(a), 10), nil
}

// Scan parses the textual or integer forms drivers hand back.
func (a *Amount) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = 0
		return nil
	case int64:
		if v < 0 {
			return fmt.Errorf("amount: negative value %d", v)
		}
		*a = Amount(v)
		return nil
	case string:
		return a.parse(v)
	case []byte:
		return a.parse(string(v))
	default:
		return fmt.Errorf("amount: unsupported scan type %T", value)
	}
}

func (a *Amount) parse(raw string) error {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(n)
	return nil
}

// GormDBDataType keeps full precision: numeric on Postgres, text on SQLite
// where numeric affinity would coerce large values to floating point.
func (Amount) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "numeric(20,0)"
	}
	return "text"
}
