// Command arpdeploy deploys the ARP contract suite to a named network.
package main

import "arpdeploy/internal/cli"

func main() {
	cli.Execute()
}
