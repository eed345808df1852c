// Package rules holds the immutable descriptions of sources, sinks and
// sanitizers that the analysis engine matches call sites against.
package rules

import "strings"

// Identifier is a dotted (or `->`, `::`, `.`) chain of name components:
// zero or more attribute-prefix parts (Object) followed by a final name
// (Ident). Equality is structural per component.
type Identifier struct {
	Object []string
	Ident  string
}

// NewIdentifier builds an Identifier from an already-split object prefix
// and final name.
func NewIdentifier(object []string, ident string) Identifier {
	return Identifier{Object: object, Ident: ident}
}

// ParseIdentifier splits a raw dotted/arrow/scope chain such as
// "$obj->member->call", "Foo::bar" or "a.b.c" into its Identifier form.
// The separator recognized is whichever of `.`, `->`, `::` appears; mixed
// separators within one chain are accepted since the grammars normalize
// on a single style each.
func ParseIdentifier(raw string) Identifier {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identifier{}
	}
	parts := splitChain(raw)
	if len(parts) == 0 {
		return Identifier{}
	}
	var object []string
	if len(parts) > 1 {
		object = parts[:len(parts)-1]
	}
	return Identifier{Object: object, Ident: parts[len(parts)-1]}
}

func splitChain(raw string) []string {
	replacer := strings.NewReplacer("->", ".", "::", ".")
	normalized := replacer.Replace(raw)
	var parts []string
	for _, p := range strings.Split(normalized, ".") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Equal reports whether two identifiers are structurally identical,
// component by component.
func (id Identifier) Equal(other Identifier) bool {
	if id.Ident != other.Ident {
		return false
	}
	if len(id.Object) != len(other.Object) {
		return false
	}
	for i := range id.Object {
		if id.Object[i] != other.Object[i] {
			return false
		}
	}
	return true
}

// String renders the identifier back into dotted form; used both for
// display and as a stable map key.
func (id Identifier) String() string {
	if len(id.Object) == 0 {
		return id.Ident
	}
	return strings.Join(id.Object, ".") + "." + id.Ident
}

// WithObject returns a copy of the identifier with its object-name prefix
// replaced. Used by object-name fixup (spec §4.4.3).
func (id Identifier) WithObject(object []string) Identifier {
	return Identifier{Object: object, Ident: id.Ident}
}

// IsZero reports whether the identifier carries no information at all.
func (id Identifier) IsZero() bool {
	return id.Ident == "" && len(id.Object) == 0
}
