package registry

import "github.com/tendermint/executive/types"

// MetadataVersion is bumped whenever the shape of Metadata changes.
const MetadataVersion = 1

// Metadata describes the runtime's modules in registration order.
type Metadata struct {
	Version uint32           `json:"version"`
	Modules []ModuleMetadata `json:"modules"`
}

// ModuleMetadata describes one module.
type ModuleMetadata struct {
	Name      string             `json:"name"`
	Index     uint8              `json:"index"`
	Calls     []CallMetadata     `json:"calls,omitempty"`
	Events    []EventMetadata    `json:"events,omitempty"`
	Errors    []ErrorMetadata    `json:"errors,omitempty"`
	Storage   []StorageMetadata  `json:"storage,omitempty"`
	Constants []ConstantMetadata `json:"constants,omitempty"`
}

// ArgMetadata is a named, typed argument.
type ArgMetadata struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type CallMetadata struct {
	Tag  uint8         `json:"tag"`
	Name string        `json:"name"`
	Args []ArgMetadata `json:"args,omitempty"`
}

type EventMetadata struct {
	Variant uint8    `json:"variant"`
	Name    string   `json:"name"`
	Args    []string `json:"args,omitempty"`
}

type ErrorMetadata struct {
	Code    uint8  `json:"code"`
	Message string `json:"message"`
}

type StorageMetadata struct {
	Name  string `json:"name"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

type ConstantMetadata struct {
	Name  string `json:"name"`
	Value uint64 `json:"value,string"`
}

// Arg is a shorthand for building ArgMetadata lists.
func Arg(name, typ string) ArgMetadata {
	return ArgMetadata{Name: name, Type: typ}
}

// ErrorsOf lists module errors for metadata.
func ErrorsOf(errs ...*types.ModuleError) []ErrorMetadata {
	out := make([]ErrorMetadata, len(errs))
	for i, e := range errs {
		out[i] = ErrorMetadata{Code: e.Code, Message: e.Message}
	}
	return out
}
