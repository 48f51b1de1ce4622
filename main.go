package main

import "github.com/VoxDroid/bhub/cmd"

func main() {
	cmd.Execute()
}
