package main

import "github.com/ozonms/fbosync/internal/cli"

func main() {
	cli.Execute()
}
