package main

import "homedash/cmd/cli"

func main() {
	cli.Execute()
}
