package main

import "passenger-rights-bot/internal/cli"

func main() {
	cli.Execute()
}
