package main

import (
	"herd-alerts/internal/cli"
)

func main() {
	cli.Execute()
}
