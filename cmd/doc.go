// Package cmd provides the command-line interface for synthdom.
//
// Every command reads fixtures: files holding parsed template modules and
// the synthetic documents an evaluator rendered from them.
//
// # Available Commands
//
//   - stringify: Print documents as indented HTML
//   - diff: Show the edit script between two versions of a fixture
//   - resolve: Explain the instances and overrides behind a node
//   - upsert: Patch re-evaluated documents into a collection
//   - render: Render documents to HTML with error markers
//   - watch: Keep a collection in sync with fixture files
//   - snapshot: Save and inspect binary snapshots
//   - version: Show build information
//
// # Configuration
//
// Configuration is read, in order of precedence, from command-line flags,
// SYNTHDOM_* environment variables and a .synthdom.yml file. The file can
// be chosen with --config or SYNTHDOM_CONFIG_FILE.
//
//	log:
//	  level: debug
//	watch:
//	  paths: [fixtures]
//	  debounce: 250ms
//	snapshot:
//	  compression: zstd
//
// # Output
//
// Commands that report structured results accept --output text|json|yaml.
package cmd
