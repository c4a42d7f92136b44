package main

import "github.com/emrgen/noteforest/cmd"

func main() {
	cmd.Execute()
}
