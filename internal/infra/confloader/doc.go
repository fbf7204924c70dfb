// Package confloader loads configuration from files, the environment and
// maps, and watches files and directories for changes.
//
// It uses koanf. Priority, highest first:
//
//  1. Maps loaded after Load (command-line flags)
//  2. Environment variables (ASSETGW_ prefix)
//  3. The YAML configuration file
//  4. Values already present in the target struct (defaults)
//
// Environment names are the upper-cased key path joined by underscores:
// ASSETGW_LEDGER_DISPATCH_TIMEOUT sets ledger.dispatch_timeout. Keys
// that themselves contain underscores are resolved through the known
// key list given with WithKnownKeys.
package confloader
