package glm

import (
	"fmt"
	"strings"
)

const (
	// DefaultMod is the modification tag of unmodified maps.
	DefaultMod = "unmod"
	// DefaultMask is the mask tag of full-sky maps.
	DefaultMask = "fullsky"
)

// MapID identifies a map in a Store.
type MapID struct {
	Map  string `json:"map" yaml:"map"`
	Mod  string `json:"mod,omitempty" yaml:"mod,omitempty"`
	Mask string `json:"mask,omitempty" yaml:"mask,omitempty"`
}

// ID returns a MapID for tag with default modification and mask.
func ID(tag string) MapID {
	return MapID{Map: tag, Mod: DefaultMod, Mask: DefaultMask}
}

// IDs converts plain map tags to MapIDs with default modification and mask.
func IDs(tags ...string) []MapID {
	out := make([]MapID, len(tags))
	for i, t := range tags {
		out[i] = ID(t)
	}
	return out
}

// Normalize fills missing fields with defaults.
func (id MapID) Normalize() MapID {
	if id.Mod == "" {
		id.Mod = DefaultMod
	}
	if id.Mask == "" {
		id.Mask = DefaultMask
	}
	return id
}

func (id MapID) String() string {
	n := id.Normalize()
	return n.Map + "/" + n.Mod + "/" + n.Mask
}

// ParseMapID parses "map", "map/mod" or "map/mod/mask".
func ParseMapID(s string) (MapID, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 || parts[0] == "" {
		return MapID{}, fmt.Errorf("glm: invalid map id %q", s)
	}
	var id MapID
	id.Map = parts[0]
	if len(parts) > 1 {
		id.Mod = parts[1]
	}
	if len(parts) > 2 {
		id.Mask = parts[2]
	}
	return id.Normalize(), nil
}
