// ABOUTME: Entry point for the expirytrack CLI and MCP server
// ABOUTME: Hands the command line to the cobra command tree
package main

import "github.com/harperreed/expirytrack/cli"

func main() {
	cli.Execute()
}
