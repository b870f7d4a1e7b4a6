// Command vault-tool is a bootstrap and test harness for a vault
// deployment: key-chain lifecycle management and direct chunk
// store/fetch/delete round trips against a local vault's persisted
// state. Grounded on maidsafe/vault/tools/commander.cc's CLI surface --
// create/load/delete/print keys, generate_chunks, and the
// test_store_chunk/test_fetch_chunk/test_delete_chunk trio -- reworked as
// go-flags commands with Go-native mutual-exclusion validation in place
// of Boost.ProgramOptions (SPEC_FULL.md §6), mirroring
// examples/word-count/wordcountctl/main.go's command/group pattern.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/frrp/MaidSafe-Vault/internal/boilerplate"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

var Config = new(struct {
	Log boilerplate.LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`

	KeysPath  string `long:"keys-path" env:"KEYS_PATH" default:"vault-tool-keys.gob" description:"Path to the keychain file used by key commands and chunk tests"`
	ChunkPath string `long:"chunk-path" env:"CHUNK_PATH" default:"vault-tool-chunks" description:"Directory holding generated test chunks"`
	DataDir   string `long:"data-dir" env:"DATA_DIR" default:"vault-tool-data" description:"Root directory of the local vault's persisted persona state"`

	PmidsCount    int `long:"pmids-count" default:"10" description:"Number of keychains to generate"`
	KeyIndex      int `long:"key-index" default:"0" description:"Index of the keychain to act as client/holder during a chunk test"`
	ChunkSetCount int `long:"chunk-set-count" default:"10" description:"Number of chunks to generate"`
	ChunkIndex    int `long:"chunk-index" default:"0" description:"Index of the generated chunk to exercise during a chunk test"`
	GroupSize     int `long:"group-size" default:"1" description:"Close-group size assumed for quorum arithmetic"`

	Peer string `long:"peer" description:"Bootstrap peer address (accepted but not used -- networking is out of this tool's scope)"`
})

type cmdCreateKeys struct {
	Print bool `long:"print" description:"Print the generated keychains"`
}

func (c *cmdCreateKeys) Execute([]string) error {
	var keychains, err = generateKeyChains(Config.PmidsCount)
	if err != nil {
		return err
	}
	if err := saveKeyChains(Config.KeysPath, keychains); err != nil {
		return err
	}
	log.WithFields(log.Fields{"count": len(keychains), "path": Config.KeysPath}).Info("vault-tool: created keychains")
	if c.Print {
		printKeyChains(keychains)
	}
	return nil
}

type cmdLoadKeys struct {
	Print bool `long:"print" description:"Print the loaded keychains"`
}

func (c *cmdLoadKeys) Execute([]string) error {
	var keychains, err = loadKeyChains(Config.KeysPath)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"count": len(keychains), "path": Config.KeysPath}).Info("vault-tool: loaded keychains")
	if c.Print {
		printKeyChains(keychains)
	}
	return nil
}

type cmdDeleteKeys struct{}

func (c *cmdDeleteKeys) Execute([]string) error {
	if err := os.Remove(Config.KeysPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	log.WithField("path", Config.KeysPath).Info("vault-tool: deleted keychains")
	return nil
}

type cmdGenerateChunks struct{}

func (c *cmdGenerateChunks) Execute([]string) error {
	return generateChunks(Config.ChunkPath, Config.ChunkSetCount)
}

type cmdTestStoreChunk struct{}

func (c *cmdTestStoreChunk) Execute([]string) error {
	var keychain, data, err = loadTestFixture()
	if err != nil {
		return err
	}
	var v, openErr = openLocalVault(vaultpb.NodeID(keychain.Pmid), Config.DataDir, Config.GroupSize)
	if openErr != nil {
		return openErr
	}
	defer v.Close()

	var key = vaultpb.Key{Tag: vaultpb.TagImmutableChunk, Name: contentIdentity(data)}
	var env = vaultpb.Envelope{
		MessageID: 1,
		Sender:    vaultpb.Sender{Node: keychain.Pmid, Group: vaultpb.GroupID(key.Name), IsGroup: true},
	}
	v.pn.HandlePutChunk(context.Background(), env, key, data)
	log.WithFields(log.Fields{"key": key.Name, "size": len(data)}).Info("vault-tool: store-chunk complete")
	return nil
}

type cmdTestFetchChunk struct{}

func (c *cmdTestFetchChunk) Execute([]string) error {
	var _, data, err = loadTestFixture()
	if err != nil {
		return err
	}
	var v, openErr = openLocalVault(vaultpb.NodeID{}, Config.DataDir, Config.GroupSize)
	if openErr != nil {
		return openErr
	}
	defer v.Close()

	var key = vaultpb.Key{Tag: vaultpb.TagImmutableChunk, Name: contentIdentity(data)}
	var fetched, found, getErr = v.pn.Fetch(key.Name)
	if getErr != nil {
		return getErr
	}
	if !found {
		return fmt.Errorf("vault-tool: chunk %s not found", key.Name)
	}
	if len(fetched) != len(data) {
		return fmt.Errorf("vault-tool: fetched %d bytes, expected %d", len(fetched), len(data))
	}
	log.WithField("key", key.Name).Info("vault-tool: fetch-chunk verified")
	return nil
}

type cmdTestDeleteChunk struct{}

func (c *cmdTestDeleteChunk) Execute([]string) error {
	var _, data, err = loadTestFixture()
	if err != nil {
		return err
	}
	var v, openErr = openLocalVault(vaultpb.NodeID{}, Config.DataDir, Config.GroupSize)
	if openErr != nil {
		return openErr
	}
	defer v.Close()

	var key = vaultpb.Key{Tag: vaultpb.TagImmutableChunk, Name: contentIdentity(data)}
	var env = vaultpb.Envelope{MessageID: 1, Payload: vaultpb.DeleteRequestPayload{Key: key}}
	v.pn.HandleDeleteRequest(context.Background(), env)
	log.WithField("key", key.Name).Info("vault-tool: delete-chunk complete")
	return nil
}

func loadTestFixture() (KeyChain, []byte, error) {
	var keychains, err = loadKeyChains(Config.KeysPath)
	if err != nil {
		return KeyChain{}, nil, err
	}
	if Config.KeyIndex >= len(keychains) {
		return KeyChain{}, nil, fmt.Errorf("vault-tool: key-index %d out of range (%d keychains)", Config.KeyIndex, len(keychains))
	}
	var data, readErr = os.ReadFile(chunkPath(Config.ChunkPath, Config.ChunkIndex))
	if readErr != nil {
		return KeyChain{}, nil, readErr
	}
	return keychains[Config.KeyIndex], data, nil
}

func printKeyChains(keychains []KeyChain) {
	for i, kc := range keychains {
		fmt.Printf("%d\tmaid=%s\tpmid=%s\n", i, kc.Maid, kc.Pmid)
	}
}

func chunkPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("chunk-%04d.bin", index))
}

// generateChunks writes count random 1 KiB chunks into dir, named by
// chunkPath.
func generateChunks(dir string, count int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		var data = make([]byte, 1024)
		if _, err := rand.Read(data); err != nil {
			return err
		}
		if err := os.WriteFile(chunkPath(dir, i), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	var parser = flags.NewParser(Config, flags.Default)

	var _, err = parser.AddCommand("create-keys", "Generate keychains", "Create pmids_count keychains and persist them to keys-path", &cmdCreateKeys{})
	boilerplate.Must(err, "failed to add create-keys command")
	_, err = parser.AddCommand("load-keys", "Load keychains", "Load keychains previously written to keys-path", &cmdLoadKeys{})
	boilerplate.Must(err, "failed to add load-keys command")
	_, err = parser.AddCommand("delete-keys", "Delete keychains", "Remove the keys-path file", &cmdDeleteKeys{})
	boilerplate.Must(err, "failed to add delete-keys command")
	_, err = parser.AddCommand("generate-chunks", "Generate test chunks", "Write chunk-set-count random chunks under chunk-path", &cmdGenerateChunks{})
	boilerplate.Must(err, "failed to add generate-chunks command")
	_, err = parser.AddCommand("test-store-chunk", "Store a test chunk", "Store the chunk at chunk-index as the keychain at key-index's pmid", &cmdTestStoreChunk{})
	boilerplate.Must(err, "failed to add test-store-chunk command")
	_, err = parser.AddCommand("test-fetch-chunk", "Fetch a test chunk", "Fetch and verify the chunk stored by test-store-chunk", &cmdTestFetchChunk{})
	boilerplate.Must(err, "failed to add test-fetch-chunk command")
	_, err = parser.AddCommand("test-delete-chunk", "Delete a test chunk", "Delete the chunk stored by test-store-chunk", &cmdTestDeleteChunk{})
	boilerplate.Must(err, "failed to add test-delete-chunk command")

	boilerplate.MustParseArgs(parser)
	Config.Log.MustConfigure()
}
