package cldata

import (
	"fmt"
	"strings"
)

// Identifier selects one or more tags of a Dataset.
//
// The set of implementations is closed: Tag, MapGroup and Bin.
type Identifier interface {
	// Tags returns the constituent tags, in order.
	Tags() []string
	String() string
	identifier()
}

// Tag is a plain bin tag.
type Tag string

// Tags implements Identifier.
func (t Tag) Tags() []string { return []string{string(t)} }

func (t Tag) String() string { return string(t) }

func (Tag) identifier() {}

// MapGroup is a map type (for example a survey) that expands to its bin tags.
type MapGroup struct {
	Name    string
	BinTags []string
}

// Tags implements Identifier.
func (g MapGroup) Tags() []string { return g.BinTags }

func (g MapGroup) String() string {
	return fmt.Sprintf("%s[%s]", g.Name, strings.Join(g.BinTags, ","))
}

func (MapGroup) identifier() {}

// Bin describes a single redshift bin of a survey.
type Bin struct {
	Tag    string
	Survey string
	ZMin   float64
	ZMax   float64
}

// Tags implements Identifier.
func (b Bin) Tags() []string { return []string{b.Tag} }

func (b Bin) String() string { return b.Tag }

func (Bin) identifier() {}

// Tags converts plain strings into Tag identifiers.
func Tags(tags ...string) []Identifier {
	out := make([]Identifier, len(tags))
	for i, t := range tags {
		out[i] = Tag(t)
	}
	return out
}

// Resolution is the outcome of resolving an include-list against a Dataset.
type Resolution struct {
	// Tags are the resolved tags in first-seen order, without duplicates.
	Tags []string
	// Skipped are the tags that are not part of the dataset.
	Skipped []string
}

// Resolve expands include against d. Unknown tags are collected in Skipped
// instead of failing the resolution.
func (d *Dataset) Resolve(include []Identifier) Resolution {
	var res Resolution
	seen := make(map[string]struct{})
	for _, id := range include {
		if id == nil {
			continue
		}
		for _, t := range id.Tags() {
			if !d.Has(t) {
				res.Skipped = append(res.Skipped, t)
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			res.Tags = append(res.Tags, t)
		}
	}
	return res
}
