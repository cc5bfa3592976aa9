package main

import "github.com/A-Akhil/BluePrint/cmd"

func main() {
	cmd.Execute()
}
