package main

import "displayctl/cmd"

func main() {
	cmd.Execute()
}
