package main

import "github.com/vietddude/cardgate/internal/cli"

func main() {
	cli.Execute()
}
