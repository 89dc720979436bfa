package main

import "github.com/emiliopalmerini/onboardtrack/internal/cli"

func main() {
	cli.Execute()
}
