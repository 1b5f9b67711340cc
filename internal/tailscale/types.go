package tailscale

import (
	"strings"
)

// TagPrefix is the prefix Tailscale puts in front of every ACL tag.
const TagPrefix = "tag:"

// Device is a snapshot of a tailnet device as returned by the
// /tailnet/{tailnet}/devices endpoint with fields=all.
type Device struct {
	// ID is the legacy numeric device identifier; NodeID is the stable one.
	ID     string `json:"id"`
	NodeID string `json:"nodeId,omitempty"`

	// Hostname is the machine's own host name.
	Hostname string `json:"hostname"`
	// Name is the MagicDNS name, e.g. "web-1.tail1234.ts.net".
	Name string `json:"name"`

	Addresses []string `json:"addresses"`
	Tags      []string `json:"tags,omitempty"`

	OS            string `json:"os,omitempty"`
	ClientVersion string `json:"clientVersion,omitempty"`
	User          string `json:"user,omitempty"`
	LastSeen      string `json:"lastSeen,omitempty"`
	Authorized    bool   `json:"authorized"`

	// ConnectedToControl reports whether the device currently holds a
	// connection to the coordination server.
	ConnectedToControl bool `json:"connectedToControl"`
}

// Online reports whether the device is currently connected.
func (d Device) Online() bool {
	return d.ConnectedToControl
}

// PrimaryAddress returns the first Tailscale address of the device, or ""
// when it has none.
func (d Device) PrimaryAddress() string {
	if len(d.Addresses) == 0 {
		return ""
	}
	return d.Addresses[0]
}

// ShortName returns the first label of the MagicDNS name. Tailscale keeps
// these unique within a tailnet even when host names collide.
func (d Device) ShortName() string {
	name := strings.TrimSuffix(d.Name, ".")
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// HasTag reports whether the device carries the given tag.
// The tag may be given with or without its "tag:" prefix.
func (d Device) HasTag(tag string) bool {
	tag = NormalizeTag(tag)
	if tag == "" {
		return false
	}
	for _, t := range d.Tags {
		if NormalizeTag(t) == tag {
			return true
		}
	}
	return false
}

// NormalizeTag returns tag in Tailscale's canonical "tag:<name>" form.
// Surrounding whitespace is dropped; an empty tag stays empty.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.HasPrefix(tag, TagPrefix) {
		return tag
	}
	return TagPrefix + tag
}

// TagName strips the "tag:" prefix from a tag.
func TagName(tag string) string {
	return strings.TrimPrefix(tag, TagPrefix)
}

// devicesResponse is one page of the device listing.
type devicesResponse struct {
	Devices    []Device `json:"devices"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// apiError is the error body returned by the Tailscale API.
type apiError struct {
	Message string `json:"message"`
}
