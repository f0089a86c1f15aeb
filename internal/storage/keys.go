package storage

import (
	"fmt"

	"github.com/google/orderedcode"
)

// Namespace scopes the keys of one module. Keys are orderedcode tuples
// (module, item, parts...), so all entries of an item share a prefix and
// iterate in the natural order of their parts.
type Namespace struct {
	module string
}

func NewNamespace(module string) Namespace {
	return Namespace{module: module}
}

func (ns Namespace) Name() string { return ns.module }

// Key builds the key of item. parts may be strings, uint64 or int64 values.
func (ns Namespace) Key(item string, parts ...interface{}) []byte {
	items := make([]interface{}, 0, len(parts)+2)
	items = append(items, ns.module, item)
	items = append(items, parts...)
	key, err := orderedcode.Append(nil, items...)
	if err != nil {
		panic(fmt.Errorf("storage key %s/%s: %w", ns.module, item, err))
	}
	return key
}

// Prefix returns the common prefix of every key of item.
func (ns Namespace) Prefix(item string) []byte {
	return ns.Key(item)
}

// ModulePrefix returns the common prefix of every key in the namespace.
func (ns Namespace) ModulePrefix() []byte {
	key, err := orderedcode.Append(nil, ns.module)
	if err != nil {
		panic(err)
	}
	return key
}

// ParseKey decodes the parts that follow item in key into dest.
func (ns Namespace) ParseKey(key []byte, item string, dest ...interface{}) error {
	var module, got string
	items := append([]interface{}{&module, &got}, dest...)
	remaining, err := orderedcode.Parse(string(key), items...)
	if err != nil {
		return err
	}
	if len(remaining) != 0 {
		return fmt.Errorf("expected complete key but got remainder: %x", remaining)
	}
	if module != ns.module || got != item {
		return fmt.Errorf("key belongs to %s/%s, not %s/%s", module, got, ns.module, item)
	}
	return nil
}
