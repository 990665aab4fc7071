package main

import "github.com/Tiliavir/earn/cmd"

func main() {
	cmd.Execute()
}
