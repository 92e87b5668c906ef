package main

import "github.com/ragd/ragd/cmd"

func main() {
	cmd.Execute()
}
