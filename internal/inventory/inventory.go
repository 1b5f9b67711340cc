package inventory

import (
	"fmt"
	"sort"
	"strings"

	"tsinventory/internal/tailscale"
	tsstrings "tsinventory/pkg/strings"
)

// Names Ansible gives special meaning to. A tag that sanitizes to one of
// them is grouped under "Tag_<name>" instead. Sanitized names are always
// lower case, so the escaped name never collides with another tag.
const (
	GroupAll       = "all"
	GroupUngrouped = "ungrouped"
	metaKey        = "_meta"
)

// Options controls how devices are grouped.
type Options struct {
	// Tags selects the devices and names the groups.
	Tags TagSet
	// GroupPrefix is prepended to every tag name before sanitizing.
	GroupPrefix string
}

// Host is one inventory host.
type Host struct {
	// Name is the Ansible inventory hostname.
	Name string
	// Device is the device the host was built from.
	Device tailscale.Device
	// Groups are the groups the host belongs to, sorted.
	Groups []string
}

// Vars returns the host variables.
func (h Host) Vars() map[string]any {
	d := h.Device
	vars := map[string]any{
		"tailscale_id":        d.ID,
		"tailscale_node_id":   d.NodeID,
		"tailscale_hostname":  d.Hostname,
		"tailscale_dns_name":  strings.TrimSuffix(d.Name, "."),
		"tailscale_addresses": nonNil(d.Addresses),
		"tailscale_tags":      nonNil(d.Tags),
		"tailscale_os":        d.OS,
		"tailscale_online":    d.Online(),
	}
	if addr := d.PrimaryAddress(); addr != "" {
		vars["ansible_host"] = addr
	}
	return vars
}

// Group is a named set of hosts.
type Group struct {
	Name  string
	Hosts []string
}

// EmptyResultWarning reports a run in which no device matched. It is not
// fatal: the inventory is still valid, with an empty "all" group.
type EmptyResultWarning struct {
	Tailnet string
	Tags    []string
	Devices int
}

// Error implements the error interface so callers can use errors.As.
func (w *EmptyResultWarning) Error() string {
	target := "the tailnet"
	if w.Tailnet != "" {
		target = fmt.Sprintf("tailnet %q", w.Tailnet)
	}
	if len(w.Tags) == 0 {
		return fmt.Sprintf("no tags configured, inventory for %s is empty", target)
	}
	return fmt.Sprintf("none of the %d devices in %s carry any of the tags %s",
		w.Devices, target, strings.Join(w.Tags, ", "))
}

// Inventory is the result of a run: groups of hosts plus their variables.
type Inventory struct {
	hosts   map[string]*Host
	groups  map[string]map[string]struct{}
	warning *EmptyResultWarning
}

// Build groups devices by the tags in opts. Devices carrying none of the
// tags are skipped, so the input need not be filtered first.
//
// Host names come from the device hostname. When two devices share one, the
// later device is named after the first label of its MagicDNS name, and if
// that is also taken its device ID is appended.
func Build(devices []tailscale.Device, opts Options) *Inventory {
	inv := &Inventory{
		hosts:  make(map[string]*Host),
		groups: make(map[string]map[string]struct{}),
	}

	for _, d := range devices {
		matching := opts.Tags.Matching(d.Tags)
		if len(matching) == 0 {
			continue
		}

		host := &Host{Name: inv.uniqueHostName(d), Device: d}
		groupSet := make(map[string]struct{}, len(matching))
		for _, tag := range matching {
			group := GroupName(opts.GroupPrefix, tag)
			if inv.groups[group] == nil {
				inv.groups[group] = make(map[string]struct{})
			}
			inv.groups[group][host.Name] = struct{}{}
			groupSet[group] = struct{}{}
		}
		host.Groups = sortedKeys(groupSet)
		inv.hosts[host.Name] = host
	}

	if len(inv.hosts) == 0 {
		inv.warning = &EmptyResultWarning{Tags: opts.Tags.Tags(), Devices: len(devices)}
	}
	return inv
}

// GroupName derives the group name for a tag. The prefix and tag name are
// sanitized to lower case letters, digits and underscores. A result equal to
// all, ungrouped or _meta becomes Tag_all, Tag_ungrouped or Tag_meta; the
// capital T keeps it apart from a real tag such as tag:tag_all.
func GroupName(prefix, tag string) string {
	name := tsstrings.SanitizeGroupName(prefix + tailscale.TagName(tailscale.NormalizeTag(tag)))
	switch name {
	case GroupAll, GroupUngrouped, metaKey:
		return "Tag_" + strings.TrimPrefix(name, "_")
	}
	return name
}

func (inv *Inventory) uniqueHostName(d tailscale.Device) string {
	base := d.Hostname
	if base == "" {
		base = d.ShortName()
	}
	if base == "" {
		base = d.ID
	}
	if !inv.taken(base) {
		return base
	}

	if short := d.ShortName(); short != "" && !inv.taken(short) {
		return short
	}

	name := base + "-" + d.ID
	for i := 2; inv.taken(name); i++ {
		name = fmt.Sprintf("%s-%s-%d", base, d.ID, i)
	}
	return name
}

func (inv *Inventory) taken(name string) bool {
	_, ok := inv.hosts[name]
	return ok
}

// Empty reports whether the inventory has no hosts.
func (inv *Inventory) Empty() bool {
	return len(inv.hosts) == 0
}

// Warning returns the EmptyResultWarning for an empty inventory, nil
// otherwise.
func (inv *Inventory) Warning() error {
	if inv.warning == nil {
		return nil
	}
	return inv.warning
}

// Groups returns the groups sorted by name, each with sorted hosts.
// "all" is not included.
func (inv *Inventory) Groups() []Group {
	groups := make([]Group, 0, len(inv.groups))
	for _, name := range sortedKeys(inv.groups) {
		groups = append(groups, Group{Name: name, Hosts: sortedKeys(inv.groups[name])})
	}
	return groups
}

// GroupNames returns the sorted group names, "all" excluded.
func (inv *Inventory) GroupNames() []string {
	return sortedKeys(inv.groups)
}

// HostNames returns every host name, sorted. This is the "all" group.
func (inv *Inventory) HostNames() []string {
	return sortedKeys(inv.hosts)
}

// Hosts returns every host, sorted by name.
func (inv *Inventory) Hosts() []Host {
	hosts := make([]Host, 0, len(inv.hosts))
	for _, name := range inv.HostNames() {
		hosts = append(hosts, *inv.hosts[name])
	}
	return hosts
}

// Host looks up a host by inventory name.
func (inv *Inventory) Host(name string) (Host, bool) {
	h, ok := inv.hosts[name]
	if !ok {
		return Host{}, false
	}
	return *h, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
