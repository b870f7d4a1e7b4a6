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

// noKnownPeers is the ResponsibleFunc a solo deployment hands to
// HandleChurnEvent: there is no peer to transfer accounts to.
func noKnownPeers(vaultpb.Key) (vaultpb.NodeID, bool) { return vaultpb.NodeID{}, false }

// registerDemux wires every persona's MessageType handlers onto router,
// demuxing purely on env.Type -- the same role consumer.Resolver plays
// between a Router delivery and a Service's typed handler in the
// teacher's own consumer/resolver.go.
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
			log.WithField("type", env.Type).Warn("vaultd: unrouted message for DataManager")
		}
	})

	router.register(vaultpb.PersonaMaidManager, func(ctx context.Context, env vaultpb.Envelope) {
		switch env.Type {
		case vaultpb.MsgPutRequest:
			var payload, ok = env.Payload.(vaultpb.ClientPutPayload)
			if !ok {
				log.Warn("vaultd: malformed MsgPutRequest payload")
				return
			}
			mm.HandlePutRequest(ctx, env, env.Sender.Node, payload.ChunkSize, payload.DataKey)
		case vaultpb.MsgRegisterPmid:
			var payload, ok = env.Payload.(vaultpb.RegisterPmidPayload)
			if !ok {
				log.Warn("vaultd: malformed MsgRegisterPmid payload")
				return
			}
			mm.HandleRegisterPmid(ctx, env, env.Sender.Node, payload.Pmid, payload.Capacity)
		case vaultpb.MsgSynchronise:
			mm.HandleSynchronise(ctx, env)
		default:
			log.WithField("type", env.Type).Warn("vaultd: unrouted message for MaidManager")
		}
	})

	router.register(vaultpb.PersonaPmidManager, func(ctx context.Context, env vaultpb.Envelope) {
		switch env.Type {
		case vaultpb.MsgChunkStored:
			var payload, ok = env.Payload.(vaultpb.ChunkStoredPayload)
			if !ok {
				log.Warn("vaultd: malformed MsgChunkStored payload")
				return
			}
			pm.HandleChunkStored(ctx, env, env.Sender.Node, payload.DataKey, payload.ChunkSize)
		case vaultpb.MsgChunkLost:
			var payload, ok = env.Payload.(vaultpb.ChunkLostPayload)
			if !ok {
				log.Warn("vaultd: malformed MsgChunkLost payload")
				return
			}
			pm.HandleChunkLost(ctx, env, env.Sender.Node, payload.DataKey, payload.ChunkSize)
		case vaultpb.MsgSynchronise:
			pm.HandleSynchronise(ctx, env)
		default:
			log.WithField("type", env.Type).Warn("vaultd: unrouted message for PmidManager")
		}
	})

	router.register(vaultpb.PersonaPmidNode, func(ctx context.Context, env vaultpb.Envelope) {
		switch env.Type {
		case vaultpb.MsgGetRequest:
			pn.HandleGetRequest(ctx, env)
		case vaultpb.MsgPutChunk:
			var payload, ok = env.Payload.(vaultpb.PutChunkPayload)
			if !ok {
				log.Warn("vaultd: malformed MsgPutChunk payload")
				return
			}
			pn.HandlePutChunk(ctx, env, payload.Key, payload.Data)
		case vaultpb.MsgDeleteRequest:
			pn.HandleDeleteRequest(ctx, env)
		default:
			log.WithField("type", env.Type).Warn("vaultd: unrouted message for PmidNode")
		}
	})

	router.register(vaultpb.PersonaVersionHandler, func(ctx context.Context, env vaultpb.Envelope) {
		switch env.Type {
		case vaultpb.MsgPutVersion:
			var payload, ok = env.Payload.(vaultpb.PutVersionPayload)
			if !ok {
				log.Warn("vaultd: malformed MsgPutVersion payload")
				return
			}
			vh.HandlePutVersion(ctx, env, payload.Key, payload.NewVersion)
		case vaultpb.MsgSynchronise:
			vh.HandleSynchronise(ctx, env)
		default:
			log.WithField("type", env.Type).Warn("vaultd: unrouted message for VersionHandler")
		}
	})
}
