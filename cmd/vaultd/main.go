// Command vaultd runs a single vault node: all five personas (Maid
// Manager, Data Manager, Pmid Manager, Pmid Node, Version Handler) wired
// over one process-local Router, each backed by its own on-disk
// KeyedDb. Grounded on examples/word-count/wordcountctl/main.go's
// Config/flags.Parser shape and consumer.Service.QueueTasks's sequential
// task-group shutdown ordering (service.go).
package main

import (
	"context"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/frrp/MaidSafe-Vault/cachehandler"
	"github.com/frrp/MaidSafe-Vault/datamanager"
	"github.com/frrp/MaidSafe-Vault/dispatch"
	"github.com/frrp/MaidSafe-Vault/internal/boilerplate"
	"github.com/frrp/MaidSafe-Vault/internal/boilerplate/task"
	"github.com/frrp/MaidSafe-Vault/keyedstore"
	"github.com/frrp/MaidSafe-Vault/maidmanager"
	"github.com/frrp/MaidSafe-Vault/pmidmanager"
	"github.com/frrp/MaidSafe-Vault/pmidnode"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
	"github.com/frrp/MaidSafe-Vault/versionhandler"
)

var Config = new(struct {
	Log  boilerplate.LogConfig     `group:"Logging" namespace:"log" env-namespace:"LOG"`
	Addr boilerplate.AddressConfig `group:"Network" namespace:"network" env-namespace:"NETWORK"`

	DataDir     string `long:"data-dir" env:"DATA_DIR" default:"/var/lib/vaultd" description:"Root directory for persona KeyedDb stores and chunk storage"`
	GroupSize   int    `long:"group-size" env:"GROUP_SIZE" default:"1" description:"Close-group size this node assumes for quorum arithmetic (1 for a single-node local vault)"`
	CacheBudget int    `long:"cache-budget-bytes" env:"CACHE_BUDGET_BYTES" default:"67108864" description:"Resident byte budget for the Cache Handler"`
	TimerWorkers int   `long:"timer-workers" env:"TIMER_WORKERS" default:"4" description:"Worker pool size backing the Get pipeline's DeadlineTimer"`
})

func main() {
	var parser = flags.NewParser(Config, flags.Default)
	boilerplate.MustParseArgs(parser)

	Config.Log.MustConfigure()

	var self vaultpb.NodeID
	copy(self[:], Config.Addr.Address)

	var groupSize = Config.GroupSize
	if groupSize < 1 {
		groupSize = 1
	}
	var groups = func(vaultpb.GroupID) int { return groupSize }

	var router = newLoopbackRouter()

	var dmStore, err = keyedstore.Open[vaultpb.Value](filepath.Join(Config.DataDir, "data_manager"))
	boilerplate.Must(err, "opening Data Manager KeyedDb")
	var mmStore, mmErr = keyedstore.Open[vaultpb.MaidAccount](filepath.Join(Config.DataDir, "maid_manager"))
	boilerplate.Must(mmErr, "opening Maid Manager KeyedDb")
	var pmStore, pmErr = keyedstore.Open[vaultpb.PmidTotals](filepath.Join(Config.DataDir, "pmid_manager"))
	boilerplate.Must(pmErr, "opening Pmid Manager KeyedDb")
	var vhStore, vhErr = keyedstore.Open[vaultpb.VersionPointer](filepath.Join(Config.DataDir, "version_handler"))
	boilerplate.Must(vhErr, "opening Version Handler KeyedDb")

	var cache = cachehandler.New(Config.CacheBudget)
	var chunks, chunkErr = pmidnode.NewFileChunkStore(filepath.Join(Config.DataDir, "chunks"))
	boilerplate.Must(chunkErr, "opening chunk store")

	var dmDisp = dispatch.New(router, self, vaultpb.PersonaDataManager)
	var mmDisp = dispatch.New(router, self, vaultpb.PersonaMaidManager)
	var pmDisp = dispatch.New(router, self, vaultpb.PersonaPmidManager)
	var pnDisp = dispatch.New(router, self, vaultpb.PersonaPmidNode)
	var vhDisp = dispatch.New(router, self, vaultpb.PersonaVersionHandler)

	var dm = datamanager.New(self, dmStore, dmDisp, cache, groups, Config.TimerWorkers)
	var mm = maidmanager.New(self, mmStore, mmDisp, groups)
	var pm = pmidmanager.New(self, pmStore, pmDisp, groups)
	var pn = pmidnode.New(self, pnDisp, chunks)
	var vh = versionhandler.New(self, vhStore, vhDisp, groups)

	registerDemux(router, dm, mm, pm, pn, vh)

	var group = task.NewGroup(context.Background())
	group.Queue("network-status", func() error {
		for status := range router.NetworkStatus() {
			log.WithField("status", status).Debug("vaultd: network status")
		}
		return nil
	})
	group.Queue("matrix-changes", func() error {
		for change := range router.MatrixChanges() {
			// A solo local deployment has no peer to hand accounts off
			// to; churn handling is exercised by datamanager's own tests
			// against a real ResponsibleFunc.
			dm.HandleChurnEvent(group.Context(), change, noKnownPeers)
		}
		return nil
	})

	log.WithFields(log.Fields{
		"dataDir":   Config.DataDir,
		"groupSize": groupSize,
	}).Info("vaultd: started")

	boilerplate.Must(group.Wait(), "vaultd: task group exited with error")

	dmStore.Close()
	mmStore.Close()
	pmStore.Close()
	vhStore.Close()
}
