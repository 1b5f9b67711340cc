package inventory

import (
	"encoding/json"

	"sigs.k8s.io/yaml"
)

type jsonGroup struct {
	Hosts    []string `json:"hosts"`
	Children []string `json:"children,omitempty"`
}

type jsonAllGroup struct {
	Hosts    []string `json:"hosts"`
	Children []string `json:"children"`
}

type jsonMeta struct {
	HostVars map[string]map[string]any `json:"hostvars"`
}

// MarshalJSON renders the inventory in the format Ansible expects from
// "--list":
//
//	{"all": {"hosts": [...], "children": [...]},
//	 "<group>": {"hosts": [...]},
//	 "_meta": {"hostvars": {...}}}
func (inv *Inventory) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(inv.groups)+2)

	out[GroupAll] = jsonAllGroup{
		Hosts:    inv.HostNames(),
		Children: inv.GroupNames(),
	}
	for _, g := range inv.Groups() {
		out[g.Name] = jsonGroup{Hosts: g.Hosts}
	}

	meta := jsonMeta{HostVars: make(map[string]map[string]any, len(inv.hosts))}
	for _, h := range inv.Hosts() {
		meta.HostVars[h.Name] = h.Vars()
	}
	out[metaKey] = meta

	return json.Marshal(out)
}

// HostVars returns the variables of one host, as printed for "--host".
// Unknown hosts get an empty map.
func (inv *Inventory) HostVars(name string) map[string]any {
	h, ok := inv.Host(name)
	if !ok {
		return map[string]any{}
	}
	return h.Vars()
}

// StaticYAML renders the inventory as an Ansible YAML inventory file.
// Variables live under all.hosts; each group lists its members.
func (inv *Inventory) StaticYAML() ([]byte, error) {
	hosts := make(map[string]any, len(inv.hosts))
	for _, h := range inv.Hosts() {
		hosts[h.Name] = h.Vars()
	}

	children := make(map[string]any, len(inv.groups))
	for _, g := range inv.Groups() {
		members := make(map[string]any, len(g.Hosts))
		for _, name := range g.Hosts {
			members[name] = map[string]any{}
		}
		children[g.Name] = map[string]any{"hosts": members}
	}

	all := map[string]any{
		"hosts":    hosts,
		"children": children,
	}
	return yaml.Marshal(map[string]any{GroupAll: all})
}
