package main

import "github.com/mentorweb/mentorweb_backend/cmd"

func main() {
	cmd.Execute()
}
