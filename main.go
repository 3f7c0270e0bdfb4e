package main

import "github.com/xvierd/commitwatch/cmd"

func main() {
	cmd.Execute()
}
