// Command rostervault is the CLI entry point.
package main

import "github.com/fieldside/rostervault/internal/cli"

func main() {
	cli.Execute()
}
