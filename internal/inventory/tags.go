package inventory

import (
	"tsinventory/internal/tailscale"
)

// TagSet is a set of tags in canonical "tag:<name>" form.
type TagSet struct {
	members map[string]struct{}
	order   []string
}

// NewTagSet normalizes tags and drops blanks and duplicates. Order of first
// occurrence is kept.
func NewTagSet(tags ...string) TagSet {
	set := TagSet{members: make(map[string]struct{}, len(tags))}
	for _, tag := range tags {
		tag = tailscale.NormalizeTag(tag)
		if tag == "" {
			continue
		}
		if _, ok := set.members[tag]; ok {
			continue
		}
		set.members[tag] = struct{}{}
		set.order = append(set.order, tag)
	}
	return set
}

// Len returns the number of tags.
func (s TagSet) Len() int {
	return len(s.order)
}

// Contains reports whether tag, with or without its prefix, is in the set.
func (s TagSet) Contains(tag string) bool {
	_, ok := s.members[tailscale.NormalizeTag(tag)]
	return ok
}

// Tags returns the tags in the order they were configured.
func (s TagSet) Tags() []string {
	return append([]string(nil), s.order...)
}

// Matching returns the tags of deviceTags that are in the set, without
// duplicates, in device order.
func (s TagSet) Matching(deviceTags []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tag := range deviceTags {
		tag = tailscale.NormalizeTag(tag)
		if _, ok := s.members[tag]; !ok {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Filter returns the devices carrying at least one tag of tags, in input
// order. An empty set matches nothing.
func Filter(devices []tailscale.Device, tags TagSet) []tailscale.Device {
	out := []tailscale.Device{}
	if tags.Len() == 0 {
		return out
	}
	for _, d := range devices {
		if tags.matchesDevice(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s TagSet) matchesDevice(d tailscale.Device) bool {
	for _, tag := range s.order {
		if d.HasTag(tag) {
			return true
		}
	}
	return false
}
