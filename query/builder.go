// Package query builds backend-agnostic attribute requests for a hierarchy
// level. A request is an ordered list of directives: filters constrain the
// match, return keys ask for an attribute without constraining it. The
// builder completes every request with the level's mandatory return
// attributes so that results are always minimally identifiable.
package query

import (
	"sort"

	"github.com/openrad/dcmfetch/types"
)

// Attr is one caller-supplied attribute. An empty Value requests the
// attribute be returned without matching on it.
type Attr struct {
	Key   string
	Value string
}

// Attrs is an ordered caller attribute list. Order is preserved into the
// built request, which matters for backends that build positional command
// arguments.
type Attrs []Attr

// FromMap converts an unordered attribute map into Attrs sorted by key.
// Callers that care about directive order should build Attrs directly.
func FromMap(m map[string]string) Attrs {
	attrs := make(Attrs, 0, len(m))
	for k, v := range m {
		attrs = append(attrs, Attr{Key: k, Value: v})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	return attrs
}

// Directive is one element of a built request.
type Directive struct {
	Key   string
	Value string
}

// IsReturn reports whether the directive only requests the attribute back
// rather than filtering on it.
func (d Directive) IsReturn() bool { return d.Value == "" }

// Build produces the complete directive list for a level: the caller's
// attributes first, in caller order, then a return directive for every
// mandatory key of the level the caller did not mention, in canonical
// order. Unknown keys are passed through verbatim; rejecting them is the
// backend's concern.
func Build(level types.Level, attrs Attrs) []Directive {
	mandatory := level.MandatoryKeys()
	satisfied := make(map[string]bool, len(mandatory))

	directives := make([]Directive, 0, len(attrs)+len(mandatory))
	for _, a := range attrs {
		directives = append(directives, Directive{Key: a.Key, Value: a.Value})
		satisfied[a.Key] = true
	}

	for _, k := range mandatory {
		if !satisfied[k] {
			directives = append(directives, Directive{Key: k})
		}
	}

	return directives
}
