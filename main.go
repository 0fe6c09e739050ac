package main

import "github.com/killallgit/streamir/cmd"

func main() {
	cmd.Execute()
}
