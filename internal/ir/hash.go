package ir

import (
	"fmt"

	"github.com/google/uuid"
)

// Domain namespaces for content-addressed identity.
// The version suffix enables future algorithm migration.
var (
	DomainItem   = uuid.NewSHA1(uuid.NameSpaceURL, []byte("traitasync/item/v1"))
	DomainMethod = uuid.NewSHA1(uuid.NameSpaceURL, []byte("traitasync/method/v1"))
)

// ItemID computes a content-addressed identifier for an annotated item from
// its kind, name and source text. The ID is stable across runs given the
// same input, so reports and inspection output can be diffed.
func ItemID(kind, name, text string) (string, error) {
	obj := Object{
		"kind": Str(kind),
		"name": Str(name),
		"text": Str(text),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ItemID: failed to marshal: %w", err)
	}
	return uuid.NewSHA1(DomainItem, canonical).String(), nil
}

// MethodID computes a content-addressed identifier for a method within an
// item.
func MethodID(itemID, method string) (string, error) {
	obj := Object{
		"item_id": Str(itemID),
		"method":  Str(method),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("MethodID: failed to marshal: %w", err)
	}
	return uuid.NewSHA1(DomainMethod, canonical).String(), nil
}
