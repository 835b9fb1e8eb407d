package main

import "sysmon/internal/cli"

func main() {
	cli.Execute()
}
