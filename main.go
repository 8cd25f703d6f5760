package main

import "gee-tools/cmd"

func main() {
	cmd.Execute()
}
