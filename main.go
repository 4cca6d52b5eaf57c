package main

import "github.com/selimozcann/LinkGuard/cmd"

func main() {
	cmd.Execute()
}
