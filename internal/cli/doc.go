// Package cli holds the terminal-facing pieces of tsinventory: output
// formats, tables, the progress spinner and the mapping of errors to exit
// codes.
//
// # Output Formats
//
//   - table: kubectl-style plain table (PlainTableWriter), easy to grep
//   - wide: boxed go-pretty table with every device column
//   - json: indented or compact JSON
//   - yaml: YAML produced from the JSON form
//
// # Progress
//
// StartProgress takes the command's error writer and draws a spinner only
// when that writer is an *os.File attached to a terminal and quiet mode is
// off. Ansible runs inventory scripts without a terminal, so
// the spinner never mixes with inventory output.
//
// # Exit Codes
//
//	0  success
//	1  any other error
//	2  configuration error
//	3  authentication error
//	4  network error
package cli
