package main

import "github.com/lepinkainen/bookscout/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
