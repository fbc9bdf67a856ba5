// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the coursemate home directory (~/.coursemate).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates with built-in fallbacks
package file
