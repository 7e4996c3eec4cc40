package main

import "github.com/ValentinKolb/gKV/cmd"

func main() {
	cmd.Execute()
}
