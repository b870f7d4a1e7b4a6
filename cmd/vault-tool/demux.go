package main

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/frrp/MaidSafe-Vault/datamanager"
	"github.com/frrp/MaidSafe-Vault/maidmanager"
	"github.com/frrp/MaidSafe-Vault/pmidmanager"
	"github.com/frrp/MaidSafe-Vault/pmidnode"
	"github.com/frrp/MaidSafe-Vault/vaultpb"
	"github.com/frrp/MaidSafe-Vault/versionhandler"
)

// registerDemux wires every persona's MessageType handlers onto router.
// Identical in shape to cmd/vaultd's own registerDemux -- see that file's
// doc comment for the grounding note -- duplicated because the two
// cmd/... trees are independent main packages.
func registerDemux(router *loopbackRouter, dm *datamanager.Service, mm *maidmanager.Service, pm *pmidmanager.Service, pn *pmidnode.Service, vh *versionhandler.Service) {
	router.register(vaultpb.PersonaDataManager, func(ctx context.Context, env vaultpb.Envelope) {
		switch env.Type {
		case vaultpb.MsgPutRequestFromMaidManager:
			dm.HandlePutRequestFromMaidManager(ctx, env)
		case vaultpb.MsgPutResponseFromPmidManager:
			dm.HandlePutResponseFromPmidManager(ctx, env)
		case vaultpb.MsgPutFailureFromPmidManager:
			dm.HandlePutFailureFromPmidManager(ctx, env)
		case vaultpb.MsgGetRequest, vaultpb.MsgGetRequestPartial:
			dm.HandleGetRequest(ctx, env)
		case vaultpb.MsgGetResponseFromPmidNode:
			dm.HandleGetResponseFromPmidNode(ctx, env)
		case vaultpb.MsgDeleteRequestFromMaidManager:
			dm.HandleDeleteRequestFromMaidManager(ctx, env)
		case vaultpb.MsgSetPmidOnline:
			dm.HandleSetPmidOnline(ctx, env)
		case vaultpb.MsgSetPmidOffline:
			dm.HandleSetPmidOffline(ctx, env)
		case vaultpb.MsgAccountTransferFromDataManager:
			dm.HandleAccountTransferFromDataManager(ctx, env)
		case vaultpb.MsgAccountQuery:
			dm.HandleAccountQuery(ctx, env)
		case vaultpb.MsgAccountQueryResponse:
			dm.HandleAccountQueryResponse(ctx, env)
		case vaultpb.MsgPutToCacheFromDataManagerToDataManager:
			dm.HandlePutToCache(ctx, env)
		case vaultpb.MsgSynchronise:
			dm.HandleSynchronise(ctx, env)
		default:
			log.WithField("type", env.Type).Warn("vault-tool: unrouted message for DataManager")
		}
	})

	router.register(vaultpb.PersonaMaidManager, func(ctx context.Context, env vaultpb.Envelope) {
		switch env.Type {
		case vaultpb.MsgPutRequest:
			var payload, ok = env.Payload.(vaultpb.ClientPutPayload)
			if !ok {
				log.Warn("vault-tool: malformed MsgPutRequest payload")
				return
			}
			mm.HandlePutRequest(ctx, env, env.Sender.Node, payload.ChunkSize, payload.DataKey)
		case vaultpb.MsgRegisterPmid:
			var payload, ok = env.Payload.(vaultpb.RegisterPmidPayload)
			if !ok {
				log.Warn("vault-tool: malformed MsgRegisterPmid payload")
				return
			}
			mm.HandleRegisterPmid(ctx, env, env.Sender.Node, payload.Pmid, payload.Capacity)
		case vaultpb.MsgSynchronise:
			mm.HandleSynchronise(ctx, env)
		default:
			log.WithField("type", env.Type).Warn("vault-tool: unrouted message for MaidManager")
		}
	})

	router.register(vaultpb.PersonaPmidManager, func(ctx context.Context, env vaultpb.Envelope) {
		switch env.Type {
		case vaultpb.MsgChunkStored:
			var payload, ok = env.Payload.(vaultpb.ChunkStoredPayload)
			if !ok {
				log.Warn("vault-tool: malformed MsgChunkStored payload")
				return
			}
			pm.HandleChunkStored(ctx, env, env.Sender.Node, payload.DataKey, payload.ChunkSize)
		case vaultpb.MsgChunkLost:
			var payload, ok = env.Payload.(vaultpb.ChunkLostPayload)
			if !ok {
				log.Warn("vault-tool: malformed MsgChunkLost payload")
				return
			}
			pm.HandleChunkLost(ctx, env, env.Sender.Node, payload.DataKey, payload.ChunkSize)
		case vaultpb.MsgSynchronise:
			pm.HandleSynchronise(ctx, env)
		default:
			log.WithField("type", env.Type).Warn("vault-tool: unrouted message for PmidManager")
		}
	})

	router.register(vaultpb.PersonaPmidNode, func(ctx context.Context, env vaultpb.Envelope) {
		switch env.Type {
		case vaultpb.MsgGetRequest:
			pn.HandleGetRequest(ctx, env)
		case vaultpb.MsgPutChunk:
			var payload, ok = env.Payload.(vaultpb.PutChunkPayload)
			if !ok {
				log.Warn("vault-tool: malformed MsgPutChunk payload")
				return
			}
			pn.HandlePutChunk(ctx, env, payload.Key, payload.Data)
		case vaultpb.MsgDeleteRequest:
			pn.HandleDeleteRequest(ctx, env)
		default:
			log.WithField("type", env.Type).Warn("vault-tool: unrouted message for PmidNode")
		}
	})

	router.register(vaultpb.PersonaVersionHandler, func(ctx context.Context, env vaultpb.Envelope) {
		switch env.Type {
		case vaultpb.MsgPutVersion:
			var payload, ok = env.Payload.(vaultpb.PutVersionPayload)
			if !ok {
				log.Warn("vault-tool: malformed MsgPutVersion payload")
				return
			}
			vh.HandlePutVersion(ctx, env, payload.Key, payload.NewVersion)
		case vaultpb.MsgSynchronise:
			vh.HandleSynchronise(ctx, env)
		default:
			log.WithField("type", env.Type).Warn("vault-tool: unrouted message for VersionHandler")
		}
	})
}
