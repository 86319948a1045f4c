package main

import "github.com/example/visa-rescheduler/cmd"

func main() {
	cmd.Execute()
}
