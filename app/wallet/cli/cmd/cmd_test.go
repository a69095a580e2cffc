package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/wallet"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// fakeNode answers the node routes the wallet uses.
type fakeNode struct {
	mu        sync.Mutex
	balance   float64
	submitted []database.Tx
	votes     []voteRequest
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/balance/"):
		json.NewEncoder(w).Encode(balance{
			Address: strings.TrimPrefix(r.URL.Path, "/v1/balance/"),
			Balance: n.balance,
		})

	case r.Method == http.MethodPost && r.URL.Path == "/v1/tx/submit":
		var tx database.Tx
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
			return
		}
		n.submitted = append(n.submitted, tx)
		json.NewEncoder(w).Encode(submitted{Success: true, Message: "Transaction added to pending queue", Hash: tx.Hash})

	case r.Method == http.MethodPost && r.URL.Path == "/v1/vote":
		var req voteRequest
		json.NewDecoder(r.Body).Decode(&req)
		n.votes = append(n.votes, req)
		json.NewEncoder(w).Encode(voteResult{BlockIndex: 3, Approved: req.Approve, Percentage: 100, Threshold: 66.7})

	default:
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(errorResponse{Error: "not found"})
	}
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

// =============================================================================

func Test_Wallet(t *testing.T) {
	node := fakeNode{}
	srv := httptest.NewServer(&node)
	defer srv.Close()

	dir := t.TempDir()
	global := []string{"-p", dir, "-a", "alice", "-u", srv.URL}

	t.Log("Given the need to manage a wallet from the command line.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen generating a key pair.", testID)
		{
			out, err := execute(append([]string{"generate"}, global...)...)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to generate a wallet: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to generate a wallet.", success, testID)

			w, err := wallet.Load(getPrivateKeyPath())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the saved key: %v", failed, testID, err)
			}
			if strings.TrimSpace(out) != w.Address() {
				t.Logf("\t\tTest %d:\tgot: %q", testID, out)
				t.Logf("\t\tTest %d:\texp: %q", testID, w.Address())
				t.Fatalf("\t%s\tTest %d:\tShould print the address of the wallet.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould print the address of the wallet.", success, testID)

			if _, err := execute(append([]string{"generate"}, global...)...); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould refuse to overwrite an existing key.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse to overwrite an existing key.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen sending more than the balance.", testID)
		{
			node.balance = 5

			if _, err := execute(append([]string{"send", "-t", "VRECEIVER", "-v", "10"}, global...)...); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould refuse to send.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse to send.", success, testID)

			if len(node.submitted) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not submit the transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not submit the transaction.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen sending within the balance.", testID)
		{
			node.balance = 100

			out, err := execute(append([]string{"send", "-t", "VRECEIVER", "-v", "10"}, global...)...)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to send: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to send.", success, testID)

			if len(node.submitted) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould submit one transaction: %d", failed, testID, len(node.submitted))
			}
			tx := node.submitted[0]

			if !tx.IsValid(tx.PublicKey) || tx.Receiver != "VRECEIVER" || tx.Amount != 10 {
				t.Fatalf("\t%s\tTest %d:\tShould submit a signed transaction: %+v", failed, testID, tx)
			}
			t.Logf("\t%s\tTest %d:\tShould submit a signed transaction.", success, testID)

			if strings.TrimSpace(out) != tx.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould print the transaction hash: %q", failed, testID, out)
			}
			t.Logf("\t%s\tTest %d:\tShould print the transaction hash.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen voting on a block.", testID)
		{
			args := []string{"vote", "--private-url", srv.URL, "-b", "3", "-r"}
			if _, err := execute(append(args, global...)...); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to vote: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to vote.", success, testID)

			if len(node.votes) != 1 || node.votes[0].BlockIndex == nil || *node.votes[0].BlockIndex != 3 || node.votes[0].Approve {
				t.Fatalf("\t%s\tTest %d:\tShould send a rejecting vote for block 3: %+v", failed, testID, node.votes)
			}
			t.Logf("\t%s\tTest %d:\tShould send a rejecting vote for block 3.", success, testID)
		}
	}
}

func Test_MissingAccount(t *testing.T) {
	dir := t.TempDir()

	if _, err := execute("account", "-p", dir, "-a", "nobody"); err == nil {
		t.Fatalf("Should fail for an account without a key file.")
	}

	if _, err := os.Stat(getPrivateKeyPath()); err == nil {
		t.Fatalf("Should not create a key file for a missing account.")
	}
}
