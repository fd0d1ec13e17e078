package main

import "q/cli"

const Version = "v0.1.0"

func main() {
	cli.SetVersion(Version)
	cli.Execute()
}
