package main

import "github.com/example/room-booker/cmd"

func main() {
	cmd.Execute()
}
