package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUIDArray maps a postgres uuid[] column, used for the product lists on
// offers.
type UUIDArray []uuid.UUID

func (a *UUIDArray) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = UUIDArray{}
		return nil
	case string:
		return a.parseLiteral(v)
	case []byte:
		return a.parseLiteral(string(v))
	default:
		return fmt.Errorf("uuid array: cannot scan %T", src)
	}
}

func (a UUIDArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	parts := make([]string, len(a))
	for i, id := range a {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// parseLiteral accepts the {uuid,uuid} array literal postgres emits,
// tolerating quoted elements.
func (a *UUIDArray) parseLiteral(s string) error {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if strings.TrimSpace(s) == "" {
		*a = UUIDArray{}
		return nil
	}

	elems := strings.Split(s, ",")
	out := make([]uuid.UUID, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(strings.Trim(elem, `"`))
		id, err := uuid.Parse(elem)
		if err != nil {
			return fmt.Errorf("uuid array: element %q: %w", elem, err)
		}
		out = append(out, id)
	}
	*a = out
	return nil
}
