package content

import (
	"strings"

	"github.com/foomo/nessiecatalog/pkg/catalogerr"
)

// ReferenceType branch or tag
type ReferenceType string

const (
	ReferenceTypeBranch ReferenceType = "BRANCH"
	ReferenceTypeTag    ReferenceType = "TAG"
)

// ParseReferenceType accepts the wire names case insensitive
func ParseReferenceType(s string) (ReferenceType, error) {
	switch ReferenceType(strings.ToUpper(s)) {
	case ReferenceTypeBranch:
		return ReferenceTypeBranch, nil
	case ReferenceTypeTag:
		return ReferenceTypeTag, nil
	}
	return "", catalogerr.NewValidationError("type", "unknown reference type %q", s)
}

// Reference named pointer into the commit history. Hash is empty only if the
// reference has never been committed to.
type Reference struct {
	Type ReferenceType `json:"type"`
	Name string        `json:"name"`
	Hash string        `json:"hash,omitempty"`
}

// Spec returns name@hash, or the bare name if no hash is known
func (r Reference) Spec() string {
	return RefSpec(r.Name, r.Hash)
}

func (r Reference) IsBranch() bool {
	return r.Type == ReferenceTypeBranch
}

// RefSpec builds a possibly hash qualified reference spec
func RefSpec(name, hash string) string {
	if hash == "" {
		return name
	}
	return name + "@" + hash
}

// ParseReferenceSpec splits name@hash
func ParseReferenceSpec(spec string) (name, hash string, err error) {
	name, hash, _ = strings.Cut(spec, "@")
	if name == "" {
		return "", "", catalogerr.NewValidationError("reference", "name must not be empty in %q", spec)
	}
	if strings.Contains(hash, "@") {
		return "", "", catalogerr.NewValidationError("reference", "invalid reference spec %q", spec)
	}
	return name, hash, nil
}
