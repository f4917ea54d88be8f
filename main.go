package main

import "github.com/noob2628/Inventory-App/cmd"

func main() {
	cmd.Execute()
}
