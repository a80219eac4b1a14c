package main

import "github.com/fakeyudi/trackhook/cmd"

func main() {
	cmd.Execute()
}
