package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// SchemaGeneration selects the customer identity shape of a deployment.
// Generation 1 scopes customers to a merchant; generation 2 uses global ids.
type SchemaGeneration int

const (
	GenerationV1 SchemaGeneration = 1
	GenerationV2 SchemaGeneration = 2
)

const globalCustomerPrefix = "gcus_"

var globalCustomerPattern = regexp.MustCompile(`^gcus_[0-9a-f]{32}$`)

func ParseSchemaGeneration(raw string) (SchemaGeneration, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "", "1", "v1":
		return GenerationV1, nil
	case "2", "v2":
		return GenerationV2, nil
	}
	return 0, fmt.Errorf("unknown schema generation %q", raw)
}

func (g SchemaGeneration) String() string {
	return fmt.Sprintf("v%d", int(g))
}

func (g SchemaGeneration) GlobalCustomers() bool {
	return g == GenerationV2
}

func (g SchemaGeneration) ValidateCustomerID(id string) error {
	if g.GlobalCustomers() {
		if !globalCustomerPattern.MatchString(id) {
			return fmt.Errorf("%w: customer_id must be a global customer id", ErrInvalidMandate)
		}
		return nil
	}
	if err := ValidateKey(id); err != nil {
		return fmt.Errorf("%w: customer_id", ErrInvalidMandate)
	}
	return nil
}

func NewGlobalCustomerID() string {
	return globalCustomerPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
