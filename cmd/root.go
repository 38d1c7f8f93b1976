package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the gcalmcp application
var rootCmd = &cobra.Command{
	Use:   "gcalmcp",
	Short: "MCP server for Google Calendar",
	Long: `gcalmcp is a Model Context Protocol (MCP) server that gives AI assistants
access to Google Calendar: listing calendars, searching and managing events,
and checking availability.

It runs over stdio for local assistants or over streamable HTTP for
networked clients.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gcalmcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
