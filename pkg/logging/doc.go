// Package logging provides the structured logging used across tsinventory.
//
// It is a thin layer over log/slog with a subsystem-tagged, printf-style API.
// All output goes to the writer passed to InitForCLI, which is stderr for the
// CLI: stdout is reserved for inventory documents consumed by Ansible.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelForFlags(debug, quiet), os.Stderr)
//
//	logging.Info("Inventory", "Built inventory with %d hosts", n)
//	logging.Debug("Config", "Loaded configuration from %s", path)
//	logging.Warn("Inventory", "No devices matched tags %v", tags)
//
// Library types that accept a *slog.Logger can be handed Logger(subsystem),
// which carries the same handler and a subsystem attribute.
//
// # Subsystems
//
//   - Config: option resolution, templating and validation
//   - TokenStore: OAuth token cache lifecycle
//   - Tailscale: API calls, retries and pagination
//   - Inventory: filtering and group construction
//   - CLI: command execution
//
// Token values and client secrets are never logged.
package logging
