package main

import "clipmaker/cmd"

func main() {
	cmd.Execute()
}
