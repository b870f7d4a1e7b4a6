package main

import (
	"crypto/rand"
	"encoding/gob"
	"os"

	"github.com/pkg/errors"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// KeyChain is a simplified stand-in for passport::Keychain: a client
// identity (Maid) paired with the storage identity (Pmid) it registers as
// its own contribution. Real key material and certificate chains are out
// of scope (spec.md §1 excludes passport/crypto); only the identities a
// vault addresses by are modelled.
type KeyChain struct {
	Maid vaultpb.NodeID
	Pmid vaultpb.NodeID
}

// generateKeyChains returns n freshly random KeyChains, grounded on
// Commander::CreatePmids' loop generating pmids_count_ keychains.
func generateKeyChains(n int) ([]KeyChain, error) {
	var out = make([]KeyChain, n)
	for i := range out {
		if _, err := rand.Read(out[i].Maid[:]); err != nil {
			return nil, errors.Wrap(err, "generating maid identity")
		}
		if _, err := rand.Read(out[i].Pmid[:]); err != nil {
			return nil, errors.Wrap(err, "generating pmid identity")
		}
	}
	return out, nil
}

// saveKeyChains persists keychains to path via gob encoding, matching
// Commander::SerialiseKeys/WriteFile's role (serialisation format differs:
// gob in place of MaidSafe's protobuf KeyChainList).
func saveKeyChains(path string, keychains []KeyChain) error {
	var f, err = os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating keys file")
	}
	defer f.Close()
	return errors.Wrap(gob.NewEncoder(f).Encode(keychains), "encoding keychains")
}

// loadKeyChains reads keychains previously written by saveKeyChains.
func loadKeyChains(path string) ([]KeyChain, error) {
	var f, err = os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening keys file")
	}
	defer f.Close()

	var out []KeyChain
	if err := gob.NewDecoder(f).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decoding keychains")
	}
	return out, nil
}
