package registry_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vnetwork/vblockchain/business/core/registry"
	"github.com/vnetwork/vblockchain/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Nodes(t *testing.T) {
	t.Log("Given the need to keep track of the nodes in the network.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen registering two nodes.", testID)
		{
			clock := newClock()
			core := newCore(t, t.TempDir(), clock)

			peers, err := core.RegisterNode(registry.NewNode{NodeID: "VA", Host: "10.0.0.1", Port: 6001})
			if err != nil || len(peers) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould register the first node with no peers: %v %v", failed, testID, err, peers)
			}
			t.Logf("\t%s\tTest %d:\tShould register the first node with no peers.", success, testID)

			peers, err = core.RegisterNode(registry.NewNode{NodeID: "VB", Host: "10.0.0.2", Port: 6002})
			if err != nil || len(peers) != 1 || peers[0].NodeID != "VA" {
				t.Fatalf("\t%s\tTest %d:\tShould get the first node back as a peer: %v %v", failed, testID, err, peers)
			}
			t.Logf("\t%s\tTest %d:\tShould get the first node back as a peer.", success, testID)

			if _, err := core.RegisterNode(registry.NewNode{NodeID: "VA", Host: "10.0.0.1", Port: 6001}); !errors.Is(err, registry.ErrNodeExists) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a duplicate node: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a duplicate node.", success, testID)

			if _, err := core.RegisterNode(registry.NewNode{NodeID: "VC"}); !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a node missing fields: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a node missing fields.", success, testID)

			if got := core.Peers("VB"); len(got) != 1 || got[0].NodeID != "VA" {
				t.Fatalf("\t%s\tTest %d:\tShould exclude the asking node from its peers: %v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould exclude the asking node from its peers.", success, testID)

			clock.advance(45 * time.Second)
			if ok, err := core.Heartbeat("VB"); !ok || err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould record a heartbeat: %v", failed, testID, err)
			}
			if ok, _ := core.Heartbeat("VUNKNOWN"); ok {
				t.Fatalf("\t%s\tTest %d:\tShould ignore a heartbeat from an unknown node.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould record heartbeats.", success, testID)

			clock.advance(30 * time.Second)
			nodes := core.Nodes()
			if len(nodes) != 2 || nodes[0].IsActive || !nodes[1].IsActive {
				t.Fatalf("\t%s\tTest %d:\tShould mark only recently seen nodes active: %+v", failed, testID, nodes)
			}
			t.Logf("\t%s\tTest %d:\tShould mark only recently seen nodes active.", success, testID)

			if stats := core.NetworkStats(); stats.TotalNodes != 2 || stats.ActiveNodes != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould count the active nodes: %+v", failed, testID, stats)
			}
			t.Logf("\t%s\tTest %d:\tShould count the active nodes.", success, testID)
		}
	}
}

func Test_Addresses(t *testing.T) {
	t.Log("Given the need to register wallet addresses.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen registering an address.", testID)
		{
			core := newCore(t, t.TempDir(), newClock())

			info, err := core.RegisterAddress(registry.NewAddress{Address: "VB", Username: "bill", PublicKey: "0x04"})
			if err != nil || info.Balance != registry.DefaultWelcomeBonus || info.Username != "bill" {
				t.Fatalf("\t%s\tTest %d:\tShould register with the welcome bonus: %v %+v", failed, testID, err, info)
			}
			t.Logf("\t%s\tTest %d:\tShould register with the welcome bonus.", success, testID)

			if _, err := core.RegisterAddress(registry.NewAddress{Address: "VB", Username: "bill", PublicKey: "0x04"}); !errors.Is(err, registry.ErrAddressExists) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a duplicate address: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a duplicate address.", success, testID)

			if _, err := core.AddressInfo("VMISSING"); !errors.Is(err, registry.ErrAddressNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould not find an unknown address: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not find an unknown address.", success, testID)

			core.RegisterAddress(registry.NewAddress{Address: "VA", Username: "alice", PublicKey: "0x04"})

			all := core.Addresses()
			if len(all) != 2 || all[0].Address != "VA" || all[1].Address != "VB" {
				t.Fatalf("\t%s\tTest %d:\tShould list the addresses sorted: %+v", failed, testID, all)
			}
			t.Logf("\t%s\tTest %d:\tShould list the addresses sorted.", success, testID)

			if stats := core.NetworkStats(); stats.TotalAddresses != 2 || stats.TotalV != 100 {
				t.Fatalf("\t%s\tTest %d:\tShould total the balances: %+v", failed, testID, stats)
			}
			t.Logf("\t%s\tTest %d:\tShould total the balances.", success, testID)

			if h := core.Health(); h.Status != "OK" || h.Addresses != 2 || h.Nodes != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould report health: %+v", failed, testID, h)
			}
			t.Logf("\t%s\tTest %d:\tShould report health.", success, testID)
		}
	}
}

func Test_Persistence(t *testing.T) {
	dir := t.TempDir()
	clock := newClock()

	core := newCore(t, dir, clock)
	core.RegisterNode(registry.NewNode{NodeID: "VA", Host: "10.0.0.1", Port: 6001})
	core.RegisterAddress(registry.NewAddress{Address: "VB", Username: "bill", PublicKey: "0x04"})

	for _, name := range []string{"nodes_registry.json", "addresses_registry.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("Should write %s: %s", name, err)
		}
	}

	reloaded := newCore(t, dir, clock)
	if len(reloaded.Nodes()) != 1 || len(reloaded.Addresses()) != 1 {
		t.Fatalf("Should load what was registered before.")
	}

	if err := os.WriteFile(filepath.Join(dir, "nodes_registry.json"), []byte("{bad"), 0600); err != nil {
		t.Fatalf("Should be able to corrupt the file: %s", err)
	}
	if _, err := registry.New(registry.Config{DBPath: dir}); err == nil {
		t.Fatalf("Should fail to load a corrupt file.")
	}
}

func Test_FailedSave(t *testing.T) {
	t.Log("Given the need to only register what could be saved.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the registry folder is gone.", testID)
		{
			dir := filepath.Join(t.TempDir(), "registry")
			core := newCore(t, dir, newClock())

			if err := os.RemoveAll(dir); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to remove the folder: %v", failed, testID, err)
			}

			if _, err := core.RegisterNode(registry.NewNode{NodeID: "VA", Host: "10.0.0.1", Port: 6001}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail to register a node.", failed, testID)
			}
			if len(core.Nodes()) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not keep the node that failed to save: %v", failed, testID, core.Nodes())
			}
			t.Logf("\t%s\tTest %d:\tShould not keep the node that failed to save.", success, testID)

			if _, err := core.RegisterAddress(registry.NewAddress{Address: "VB", Username: "bill", PublicKey: "0x04"}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould fail to register an address.", failed, testID)
			}
			if len(core.Addresses()) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not keep the address that failed to save: %v", failed, testID, core.Addresses())
			}
			t.Logf("\t%s\tTest %d:\tShould not keep the address that failed to save.", success, testID)

			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to restore the folder: %v", failed, testID, err)
			}

			if _, err := core.RegisterNode(registry.NewNode{NodeID: "VA", Host: "10.0.0.1", Port: 6001}); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould register the node once saving works: %v", failed, testID, err)
			}
			if _, err := core.RegisterAddress(registry.NewAddress{Address: "VB", Username: "bill", PublicKey: "0x04"}); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould register the address once saving works: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould register both once saving works.", success, testID)
		}
	}
}

// =============================================================================

type clock struct {
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *clock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *clock) Now() time.Time {
	return c.now
}

func newCore(t *testing.T, dir string, c *clock) *registry.Core {
	core, err := registry.New(registry.Config{
		DBPath: dir,
		Now:    c.Now,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the registry: %s", err)
	}

	return core
}
