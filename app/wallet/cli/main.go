// This program is a wallet for the V network. It manages the private key of
// an account and talks to a node on its behalf.
package main

import "github.com/vnetwork/vblockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
