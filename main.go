package main

import "github.com/Mohsinsiddi/monsend/cmd"

func main() {
	cmd.Execute()
}
