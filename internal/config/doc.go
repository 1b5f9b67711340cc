// Package config resolves the options tsinventory needs to talk to a tailnet.
//
// Options come from four layers, later layers winning:
//
//  1. built-in defaults
//  2. the YAML inventory file (default inventory/tailscale.yaml)
//  3. environment variables
//  4. command-line flags that were explicitly set
//
// The file and environment layers are read through viper; the flags are the
// pflag set registered by RegisterFlags.
//
// # Inventory File
//
// The file uses the same keys as an Ansible inventory plugin file, so one
// document can serve both tools:
//
//	plugin: tailscale
//	tailnet: example.com
//	client_id: "{{ env \"TS_OAUTH_ID\" }}"
//	client_secret: "{{ readFile \"/run/secrets/ts\" | trim }}"
//	tags:
//	  - node
//	  - tag:db
//	group_prefix: ts_
//	timeout: 10s
//	retries: 3
//	token_cache:
//	  enabled: true
//	  dir: ~/.config/tsinventory/tokens
//
// # Environment
//
//	TAILNET, TAILNET_NAME       tailnet
//	TAILSCALE_CLIENT_ID         client_id
//	TAILSCALE_CLIENT_SECRET     client_secret
//	TAILSCALE_TAGS              tags, comma separated
//	TAILSCALE_API_BASE_URL      api_base_url
//
// # Templates
//
// tailnet, client_id, client_secret and each tag may be Go templates. A value
// containing "{{" is rendered with the Sprig function library before use.
//
// # Errors
//
// Every problem found while resolving is reported as a ConfigurationError
// naming the option and the layer it came from. Resolve returns all of them
// at once as a ConfigurationErrorCollection.
package config
