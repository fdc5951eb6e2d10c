package main

import "github.com/harrisonrobin/taskboard/pkg/cmd"

func main() {
	cmd.Execute()
}
