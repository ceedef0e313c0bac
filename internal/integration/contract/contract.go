package contract

import (
	"fmt"
	"reflect"
	"strings"
)

// Requirement is one logical required field: an ordered list of acceptable
// key names. The requirement holds when at least one alternative is present
// with a filled value.
type Requirement struct {
	Keys []string
}

// Req is a convenience constructor for a requirement.
func Req(keys ...string) Requirement {
	return Requirement{Keys: keys}
}

// Requirement sets per inbound source system and per persistence record
// type. Unknown systems and record types have zero requirements and
// therefore always validate.
var (
	apiContracts = map[string][]Requirement{
		"san6": {
			Req("orderNumber"),
			Req("shippingDate", "deliveryDate"),
		},
		"gambio": {
			Req("orderNumber", "orders_id"),
			Req("customerEmail", "customers_email_address"),
		},
		"shopware": {
			Req("orderNumber"),
			Req("salesChannelId"),
		},
	}

	persistenceContracts = map[string][]Requirement{
		"audit_log": {
			Req("action"),
			Req("targetType"),
		},
		"dead_letter": {
			Req("system"),
			Req("operation"),
			Req("errorMessage"),
		},
	}
)

// RegisterAPIContract replaces the requirement set for a source system.
func RegisterAPIContract(sourceSystem string, reqs ...Requirement) {
	apiContracts[sourceSystem] = reqs
}

// RegisterPersistenceContract replaces the requirement set for a record type.
func RegisterPersistenceContract(recordType string, reqs ...Requirement) {
	persistenceContracts[recordType] = reqs
}

// ValidateAPIPayload checks an inbound payload from an external system
// against its required-field set. Violations come back in requirement
// declaration order, one message per unsatisfied requirement.
func ValidateAPIPayload(sourceSystem string, payload map[string]any) []string {
	return validate(sourceSystem, apiContracts[sourceSystem], payload)
}

// ValidatePersistencePayload checks a record payload before it is handed to
// a persistence collaborator.
func ValidatePersistencePayload(recordType string, payload map[string]any) []string {
	return validate(recordType, persistenceContracts[recordType], payload)
}

func validate(scope string, reqs []Requirement, payload map[string]any) []string {
	var violations []string
	for _, req := range reqs {
		if !satisfied(req, payload) {
			violations = append(violations,
				fmt.Sprintf("%s: missing required field %s", scope, strings.Join(req.Keys, "|")))
		}
	}
	return violations
}

func satisfied(req Requirement, payload map[string]any) bool {
	for _, key := range req.Keys {
		if v, ok := payload[key]; ok && filled(v) {
			return true
		}
	}
	return false
}

// filled reports whether a value counts as present. Zero numbers and false
// are filled; only nil, whitespace-only strings and empty collections are
// not.
func filled(v any) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
