package main

import (
	"flag"
)

// AppFlags holds the command-line options after aliases are merged.
type AppFlags struct {
	GlobalConfigFile string
	ListenAddress    string
	WriteConfigPath  string
}

// ParseFlags parses args (without the program name). A long flag wins over its short alias.
func ParseFlags(args []string) (AppFlags, error) {
	fs := flag.NewFlagSet("faleproxy", flag.ContinueOnError)

	globalConfigFile := fs.String("config", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := fs.String("c", "", "Alias for -config")

	listenAddress := fs.String("addr", "", "Address to listen on, e.g. :3001 (overrides config file if set)")
	listenAddressAlias := fs.String("a", "", "Alias for -addr")

	writeConfig := fs.String("write-config", "", "Write the effective configuration to this path (.yaml/.yml or .json) and exit")

	if err := fs.Parse(args); err != nil {
		return AppFlags{}, err
	}

	flags := AppFlags{
		WriteConfigPath: *writeConfig,
	}

	if *globalConfigFile != "" {
		flags.GlobalConfigFile = *globalConfigFile
	} else if *globalConfigFileAlias != "" {
		flags.GlobalConfigFile = *globalConfigFileAlias
	}

	if *listenAddress != "" {
		flags.ListenAddress = *listenAddress
	} else if *listenAddressAlias != "" {
		flags.ListenAddress = *listenAddressAlias
	}

	return flags, nil
}
