// ABOUTME: Entry point for the sprintledger CLI and MCP server
// ABOUTME: Hands control to the cobra command tree in cli
package main

import "github.com/harperreed/sprintledger/cli"

const version = "0.1.0"

func main() {
	cli.Execute(version)
}
