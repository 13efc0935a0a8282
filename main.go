package main

import "beatvault/cmd"

func main() {
	cmd.Execute()
}
