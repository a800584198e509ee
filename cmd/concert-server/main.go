package main

import "github.com/pfrederiksen/concert-server/internal/cli"

func main() {
	cli.Execute()
}
