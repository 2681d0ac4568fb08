// Package settings provides the persistent user settings and preset store
// for NeuroX.
//
// Settings live in a single JSON file (credentials, API URL, RSA key path,
// the last-used values for dialogs, and the named job-submission presets).
// The file is rewritten atomically on every change so a crash can never leave
// it half-written.
//
// The main components are:
//
//   - [Store]: mutex-guarded access to the settings file
//   - [Settings]: the on-disk document
//   - [Preset]: a named, reusable job-submission parameter set
//
// [Store.Watch] uses fsnotify to reload the file when something else edits
// it, so a long-running watcher picks up credential changes without a
// restart.
package settings
