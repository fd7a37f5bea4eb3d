// Package file provides file-based adapters for configuration and prompts.
//
// Settings live in a TOML file and prompts in user-editable text files,
// both under the corpusqa config directory (default ~/.corpusqa).
package file
