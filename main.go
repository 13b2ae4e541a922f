package main

import "github.com/healthalyze/healthalyze_backend/cmd"

func main() {
	cmd.Execute()
}
