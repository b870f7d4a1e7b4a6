package main

import (
	"crypto/sha512"
	"path/filepath"

	"github.com/frrp/MaidSafe-Vault/cachehandler"
	"github.com/frrp/MaidSafe-Vault/datamanager"
	"github.com/frrp/MaidSafe-Vault/dispatch"
	"github.com/frrp/MaidSafe-Vault/keyedstore"
	"github.com/frrp/MaidSafe-Vault/maidmanager"
	"github.com/frrp/MaidSafe-Vault/pmidmanager"
	"github.com/frrp/MaidSafe-Vault/pmidnode"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
	"github.com/frrp/MaidSafe-Vault/versionhandler"
)

// localVault is an in-process, single-node composition of all five
// personas, wired exactly as cmd/vaultd wires a production node but
// without the daemon's network-status/churn loops -- the round-trip a
// test_store_chunk/test_fetch_chunk/test_delete_chunk invocation needs,
// grounded on Commander's own in-process test harness in commander.cc.
type localVault struct {
	router *loopbackRouter
	dm     *datamanager.Service
	mm     *maidmanager.Service
	pm     *pmidmanager.Service
	pn     *pmidnode.Service
	vh     *versionhandler.Service

	dmStore *keyedstore.Store[vaultpb.Value]
	mmStore *keyedstore.Store[vaultpb.MaidAccount]
	pmStore *keyedstore.Store[vaultpb.PmidTotals]
	vhStore *keyedstore.Store[vaultpb.VersionPointer]
}

// openLocalVault opens (creating if absent) every persona's KeyedDb under
// dataDir, so repeated tool invocations against the same --data-dir
// observe each other's committed state.
func openLocalVault(self vaultpb.NodeID, dataDir string, groupSize int) (*localVault, error) {
	var groups = func(vaultpb.GroupID) int { return groupSize }

	var dmStore, err = keyedstore.Open[vaultpb.Value](filepath.Join(dataDir, "data_manager"))
	if err != nil {
		return nil, err
	}
	var mmStore, mmErr = keyedstore.Open[vaultpb.MaidAccount](filepath.Join(dataDir, "maid_manager"))
	if mmErr != nil {
		return nil, mmErr
	}
	var pmStore, pmErr = keyedstore.Open[vaultpb.PmidTotals](filepath.Join(dataDir, "pmid_manager"))
	if pmErr != nil {
		return nil, pmErr
	}
	var vhStore, vhErr = keyedstore.Open[vaultpb.VersionPointer](filepath.Join(dataDir, "version_handler"))
	if vhErr != nil {
		return nil, vhErr
	}

	var cache = cachehandler.New(64 << 20)
	var chunks, chunkErr = pmidnode.NewFileChunkStore(filepath.Join(dataDir, "chunks"))
	if chunkErr != nil {
		return nil, chunkErr
	}

	var router = newLoopbackRouter()
	var v = &localVault{
		router:  router,
		dmStore: dmStore,
		mmStore: mmStore,
		pmStore: pmStore,
		vhStore: vhStore,
		dm:      datamanager.New(self, dmStore, dispatch.New(router, self, vaultpb.PersonaDataManager), cache, groups, 2),
		mm:      maidmanager.New(self, mmStore, dispatch.New(router, self, vaultpb.PersonaMaidManager), groups),
		pm:      pmidmanager.New(self, pmStore, dispatch.New(router, self, vaultpb.PersonaPmidManager), groups),
		pn:      pmidnode.New(self, dispatch.New(router, self, vaultpb.PersonaPmidNode), chunks),
		vh:      versionhandler.New(self, vhStore, dispatch.New(router, self, vaultpb.PersonaVersionHandler), groups),
	}
	registerDemux(router, v.dm, v.mm, v.pm, v.pn, v.vh)
	return v, nil
}

func (v *localVault) Close() {
	v.dmStore.Close()
	v.mmStore.Close()
	v.pmStore.Close()
	v.vhStore.Close()
}

// contentIdentity derives a chunk's content-addressed identity from its
// bytes: the SHA-512 digest, whose 64 bytes fill Identity exactly.
func contentIdentity(data []byte) vaultpb.Identity {
	return vaultpb.Identity(sha512.Sum512(data))
}
