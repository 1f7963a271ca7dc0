// Command lead-hunter crawls websites for contact leads.
package main

import "github.com/JakeFAU/lead-hunter/cmd"

func main() {
	cmd.Execute()
}
