// Package cli defines the voxlate command line: the root command and its
// subcommands, flag defaults, and the viper settings merged from flags,
// environment and $HOME/.voxlate.yaml.
package cli
