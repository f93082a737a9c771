package main

import "github.com/Mohsinsiddi/gymcli/cmd"

func main() {
	cmd.Execute()
}
