// Package inventory turns a tailnet's devices into an Ansible inventory.
//
// A run has three steps:
//
//  1. list every device of the tailnet (see DeviceLister)
//  2. Filter keeps the devices carrying at least one configured tag
//  3. Build groups them, one group per configured tag
//
// Generate performs all three and logs the run. The resulting Inventory
// renders as Ansible's dynamic-inventory JSON (MarshalJSON, HostVars) or as
// a static YAML inventory (StaticYAML).
//
// # Grouping Rules
//
// Tags are compared in their canonical "tag:<name>" form, so "node" and
// "tag:node" select the same devices. A device lands in the group of every
// configured tag it carries; the group name is the tag name plus the
// configured prefix, passed through strings.SanitizeGroupName. Devices
// without any configured tag are left out entirely, including from "all".
//
// An empty tag set yields an empty inventory. That, like any run where no
// device matches, is reported as an EmptyResultWarning and is not an error.
package inventory
