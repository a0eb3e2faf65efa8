package main

import "github.com/devscraper/fleet/cmd"

func main() {
	cmd.Execute()
}
