package version

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tendermint/executive/crypto"
)

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version string = ExecutiveSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// ExecutiveSemVer is the semantic version of the node software.
	ExecutiveSemVer = "0.1.0"

	// SpecName identifies the runtime. Nodes only execute blocks of a
	// runtime with the same name.
	SpecName = "node"
	// ImplName identifies the implementation of the runtime.
	ImplName = "darwinia-node"
)

// Protocol is used for implementation agnostic versioning.
type Protocol uint32

var (
	// AuthoringVersion versions what block authors must agree on to produce
	// blocks others accept.
	AuthoringVersion Protocol = 2

	// SpecVersion versions the state transition rules: bumped whenever
	// executing the same block would give a different result.
	SpecVersion Protocol = 78

	// ImplVersion versions the implementation of a spec version.
	ImplVersion Protocol = 78
)

//------------------------------------------------------------------------
// Version types

// APIID is the first eight bytes of the blake2b-256 hash of an API name.
type APIID [8]byte

// NewAPIID returns the identifier of the named API.
func NewAPIID(name string) APIID {
	return APIID(crypto.Checksum64([]byte(name)))
}

func (id APIID) String() string { return "0x" + hex.EncodeToString(id[:]) }

func (id APIID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// API is a named, versioned group of runtime entrypoints.
type API struct {
	ID      APIID    `json:"id"`
	Name    string   `json:"name"`
	Version Protocol `json:"version"`
}

// Runtime describes the runtime to the host, which uses it to decide
// whether it can execute the runtime's blocks and call its entrypoints.
type Runtime struct {
	SpecName         string   `json:"spec_name"`
	ImplName         string   `json:"impl_name"`
	AuthoringVersion Protocol `json:"authoring_version"`
	SpecVersion      Protocol `json:"spec_version"`
	ImplVersion      Protocol `json:"impl_version"`
	APIs             []API    `json:"apis"`
}

// NewRuntime returns the version of this runtime exposing apis.
func NewRuntime(apis ...API) Runtime {
	return Runtime{
		SpecName:         SpecName,
		ImplName:         ImplName,
		AuthoringVersion: AuthoringVersion,
		SpecVersion:      SpecVersion,
		ImplVersion:      ImplVersion,
		APIs:             apis,
	}
}

// CanCallWith reports whether a host built against other may call into this
// runtime: spec name and authoring version must match.
func (v Runtime) CanCallWith(other Runtime) bool {
	return v.SpecName == other.SpecName && v.AuthoringVersion == other.AuthoringVersion
}

// CanAuthorWith reports whether blocks authored by this runtime are accepted
// by other.
func (v Runtime) CanAuthorWith(other Runtime) bool {
	return v.CanCallWith(other) && v.SpecVersion == other.SpecVersion
}

// HasAPI reports whether the runtime exposes the named API at exactly
// version.
func (v Runtime) HasAPI(name string, version Protocol) bool {
	id := NewAPIID(name)
	for _, api := range v.APIs {
		if api.ID == id {
			return api.Version == version
		}
	}
	return false
}

func (v Runtime) String() string {
	return fmt.Sprintf("%s-%d:%s-%d", v.SpecName, v.SpecVersion, v.ImplName, v.ImplVersion)
}

// JSON returns the indented JSON form of v.
func (v Runtime) JSON() []byte {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err)
	}
	return bz
}
