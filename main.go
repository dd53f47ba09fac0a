package main

import "github.com/ngld/ccprobe/cmd"

func main() {
	cmd.Execute()
}
