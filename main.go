package main

import "github.com/medsim/medsim/cmd"

func main() {
	cmd.Execute()
}
