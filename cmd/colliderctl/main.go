package main

import "github.com/collidersite/internal/cli"

func main() {
	cli.Execute()
}
