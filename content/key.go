package content

import (
	"net/url"
	"slices"
	"strings"

	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"go.uber.org/multierr"
)

// Key ordered, non-empty path identifying a namespace or a table
type Key struct {
	Elements []string `json:"elements"`
}

// NewKey validates and returns a key. Segments must not be empty and must not
// contain the key separator, otherwise the flattened form could not be parsed
// back into the same key.
func NewKey(elements ...string) (Key, error) {
	if len(elements) == 0 {
		return Key{}, catalogerr.NewValidationError("key", "must have at least one element")
	}
	var err error
	for i, element := range elements {
		err = multierr.Append(err, validateElement(i, element))
	}
	if err != nil {
		return Key{}, err
	}
	return Key{Elements: slices.Clone(elements)}, nil
}

// MustKey panics on invalid elements, for tests and constants
func MustKey(elements ...string) Key {
	k, err := NewKey(elements...)
	if err != nil {
		panic(err)
	}
	return k
}

// ParseKey splits a flattened key on the separator
func ParseKey(s string) (Key, error) {
	if s == "" {
		return Key{}, catalogerr.NewValidationError("key", "must not be empty")
	}
	return NewKey(strings.Split(s, KeySeparator)...)
}

func validateElement(i int, element string) error {
	switch {
	case element == "":
		return catalogerr.NewValidationError("key", "element %d must not be empty", i)
	case strings.Contains(element, KeySeparator):
		return catalogerr.NewValidationError("key", "element %d %q must not contain %q", i, element, KeySeparator)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// String flattened form of the key
func (k Key) String() string {
	return strings.Join(k.Elements, KeySeparator)
}

func (k Key) Len() int {
	return len(k.Elements)
}

func (k Key) IsEmpty() bool {
	return len(k.Elements) == 0
}

func (k Key) Equal(o Key) bool {
	return slices.Equal(k.Elements, o.Elements)
}

// Name last element
func (k Key) Name() string {
	if len(k.Elements) == 0 {
		return ""
	}
	return k.Elements[len(k.Elements)-1]
}

// Parent all but the last element
func (k Key) Parent() (Key, bool) {
	if len(k.Elements) < 2 {
		return Key{}, false
	}
	return Key{Elements: slices.Clone(k.Elements[:len(k.Elements)-1])}, true
}

// Child appends name to a copy of k
func (k Key) Child(name string) (Key, error) {
	if err := validateElement(len(k.Elements), name); err != nil {
		return Key{}, err
	}
	elements := make([]string, 0, len(k.Elements)+1)
	elements = append(elements, k.Elements...)
	return Key{Elements: append(elements, name)}, nil
}

// HasPrefix reports whether the first elements of k equal prefix
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix.Elements) > len(k.Elements) {
		return false
	}
	return slices.Equal(k.Elements[:len(prefix.Elements)], prefix.Elements)
}

// IsStrictPrefixOf reports whether o is nested below k
func (k Key) IsStrictPrefixOf(o Key) bool {
	return len(k.Elements) < len(o.Elements) && o.HasPrefix(k)
}

// Compare orders keys element by element
func (k Key) Compare(o Key) int {
	return slices.Compare(k.Elements, o.Elements)
}

// PathEscaped flattened form escaped for use as a single request path segment
func (k Key) PathEscaped() string {
	return url.PathEscape(k.String())
}
