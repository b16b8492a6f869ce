package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
)

// RoleList is an ordered role set persisted as a JSON array.
type RoleList []enums.Role

// Value marshals the list into JSON.
func (r RoleList) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	buf, err := json.Marshal([]enums.Role(r))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes a JSON array, rejecting unknown roles.
func (r *RoleList) Scan(value interface{}) error {
	if value == nil {
		*r = RoleList{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("roles: unsupported scan type %T", value)
	}

	var result []enums.Role
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	for _, role := range result {
		if !role.IsValid() {
			return fmt.Errorf("roles: invalid role %q", role)
		}
	}
	if result == nil {
		result = []enums.Role{}
	}
	*r = result
	return nil
}

// GormDBDataType picks jsonb on Postgres and plain text elsewhere.
func (RoleList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}
