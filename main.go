package main

import "github.com/frahmantamala/crm-access/cmd"

func main() {
	cmd.Execute()
}
