package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultWarehousePrefix marks environment directories that belong to a
// numbered warehouse.
const DefaultWarehousePrefix = "GCYM"

// Warehouse selects the numbered warehouse a run targets.
type Warehouse int

const (
	WarehouseBoth Warehouse = 0
	Warehouse1    Warehouse = 1
	Warehouse2    Warehouse = 2
)

// ParseWarehouse parses "1", "2" or "both".
func ParseWarehouse(s string) (Warehouse, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1":
		return Warehouse1, nil
	case "2":
		return Warehouse2, nil
	case "both":
		return WarehouseBoth, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidWarehouse, s)
	}
}

func (w Warehouse) String() string {
	if w == WarehouseBoth {
		return "both"
	}
	return strconv.Itoa(int(w))
}

// Includes reports whether the environment directory dir is part of the
// selection. Directories outside the warehouse prefix always are.
func (w Warehouse) Includes(dir, prefix string) bool {
	if w == WarehouseBoth || !strings.HasPrefix(dir, prefix) {
		return true
	}
	return strings.Contains(dir, w.String())
}
