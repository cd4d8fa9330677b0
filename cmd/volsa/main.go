package main

import "github.com/tamzrod/volsa/internal/cli"

func main() {
	cli.Execute()
}
