package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cuemby/statekeep/pkg/algorithm"
	"github.com/cuemby/statekeep/pkg/auth"
	"github.com/cuemby/statekeep/pkg/events"
	"github.com/cuemby/statekeep/pkg/log"
	"github.com/cuemby/statekeep/pkg/metrics"
	"github.com/cuemby/statekeep/pkg/types"
)

// Processor dispatches transactions against one resolved GameState. It
// holds no per-instance state of its own — every call is parameterized
// by the GameState it operates on — so one Processor serves every
// instance in the registry.
type Processor struct {
	config   *types.GameConfig
	registry *algorithm.Registry
	authz    *auth.Authorizer
	broker   *events.Broker
}

// NewProcessor returns a Processor bound to the active config, the
// algorithm registry it validates against, the authorizer, and an
// optional event broker (nil disables event publication).
func NewProcessor(cfg *types.GameConfig, registry *algorithm.Registry, authz *auth.Authorizer, broker *events.Broker) *Processor {
	return &Processor{config: cfg, registry: registry, authz: authz, broker: broker}
}

// Process runs req against state's exclusive mutator lock and returns
// the exact status code and bytes to send to the client. Instance
// lookup (path instanceId → GameState, or 404) is the caller's
// responsibility — see InstanceNotFound — since Process only ever
// operates on an already-resolved instance.
func (p *Processor) Process(state *types.GameState, bearerToken string, req Request) Outcome {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.TransactionDuration, string(req.Type))

	state.Lock()
	defer state.Unlock()

	if p.config == nil {
		out := p.transportOutcome(req, ErrConfigNotFound, "no active game configuration")
		state.Cache.Record(req.TxID, out.StatusCode, out.Body)
		return out
	}

	if req.GameInstanceID != state.InstanceID {
		out := p.transportOutcome(req, ErrInstanceMismatch, "gameInstanceId does not match the target instance")
		state.Cache.Record(req.TxID, out.StatusCode, out.Body)
		return out
	}

	if entry, hit := state.Cache.Lookup(req.TxID); hit {
		metrics.IdempotencyCacheHitsTotal.WithLabelValues(state.InstanceID).Inc()
		return Outcome{StatusCode: entry.StatusCode, Body: entry.Body}
	}

	out := p.dispatch(state, bearerToken, req)
	state.Cache.Record(req.TxID, out.StatusCode, out.Body)
	return out
}

// InstanceNotFound builds the uncached 404 outcome for a path-level
// instance id that has no registered GameState. It is a free function
// rather than a Processor method because no GameState — and therefore
// no Processor call — is ever involved.
func InstanceNotFound(instanceID string) Outcome {
	body, _ := json.Marshal(TransportError{
		ErrorCode:    ErrInstanceNotFound,
		ErrorMessage: fmt.Sprintf("no instance %q is registered", instanceID),
	})
	return Outcome{StatusCode: 404, Body: body}
}

func (p *Processor) dispatch(state *types.GameState, bearerToken string, req Request) Outcome {
	switch req.Type {
	case TxCreateActor:
		return p.requireAdmin(state, bearerToken, req, p.createActor)
	case TxGrantResources:
		return p.requireAdmin(state, bearerToken, req, p.grantResources)
	case TxGrantCharacterResources:
		return p.requireAdmin(state, bearerToken, req, p.grantCharacterResources)
	default:
		return p.requireActor(state, bearerToken, req)
	}
}

func (p *Processor) requireAdmin(state *types.GameState, bearerToken string, req Request, op func(*types.GameState, Request) Response) Outcome {
	if !p.authz.IsAdmin(bearerToken) {
		return p.transportOutcome(req, ErrUnauthorized, "admin authorization required")
	}
	return p.encodeDomain(req, op(state, req))
}

func (p *Processor) requireActor(state *types.GameState, bearerToken string, req Request) Outcome {
	actor := p.authz.Resolve(state, bearerToken)
	if actor == nil {
		return p.transportOutcome(req, ErrUnauthorized, "no actor resolves to the supplied bearer token")
	}

	if req.Type != TxCreatePlayer && !auth.ActorOwnsPlayer(actor, req.PlayerID) {
		return p.encodeDomain(req, reject(req.TxID, state.StateVersion, ErrOwnershipViolation,
			fmt.Sprintf("actor does not own player %q", req.PlayerID)))
	}

	var resp Response
	switch req.Type {
	case TxCreatePlayer:
		resp = p.createPlayer(state, actor, req)
	case TxCreateCharacter:
		resp = p.createCharacter(state, req)
	case TxLevelUpCharacter:
		resp = p.levelUpCharacter(state, req)
	case TxLevelUpGear:
		resp = p.levelUpGear(state, req)
	case TxCreateGear:
		resp = p.createGear(state, req)
	case TxEquipGear:
		resp = p.equipGear(state, req)
	case TxUnequipGear:
		resp = p.unequipGear(state, req)
	default:
		resp = reject(req.TxID, state.StateVersion, ErrUnsupportedTxType,
			fmt.Sprintf("unsupported transaction type %q", req.Type))
	}
	return p.encodeDomain(req, resp)
}

func (p *Processor) transportOutcome(req Request, code ErrorCode, message string) Outcome {
	metrics.TransactionsTotal.WithLabelValues(string(req.Type), "rejected").Inc()
	p.publish(events.EventTransactionRejected, req, string(code))
	p.txLogger(req).Warn().Str("errorCode", string(code)).Msg(message)
	body, _ := json.Marshal(TransportError{ErrorCode: code, ErrorMessage: message})
	return Outcome{StatusCode: transportStatus[code], Body: body}
}

func (p *Processor) encodeDomain(req Request, resp Response) Outcome {
	outcome := "rejected"
	evtType := events.EventTransactionRejected
	if resp.Accepted {
		outcome = "accepted"
		evtType = events.EventTransactionAccepted
	}
	metrics.TransactionsTotal.WithLabelValues(string(req.Type), outcome).Inc()
	p.publish(evtType, req, string(resp.ErrorCode))

	logger := p.txLogger(req)
	event := logger.Info()
	if !resp.Accepted {
		event = logger.Warn()
	}
	event.Str("outcome", outcome).Str("errorCode", string(resp.ErrorCode)).Msg(string(req.Type))

	body, _ := json.Marshal(resp)
	return Outcome{StatusCode: 200, Body: body}
}

// txLogger tags a log line with both the target instance and the
// transaction id, so every accepted/rejected transaction can be traced
// back to its instance without re-deriving the pair at each call site.
func (p *Processor) txLogger(req Request) zerolog.Logger {
	return log.With("instance_id", req.GameInstanceID, "tx_id", req.TxID)
}

func (p *Processor) publish(evtType events.EventType, req Request, errorCode string) {
	if p.broker == nil {
		return
	}
	meta := map[string]string{"txId": req.TxID, "type": string(req.Type)}
	if errorCode != "" {
		meta["errorCode"] = errorCode
	}
	p.broker.Publish(&events.Event{
		Type:       evtType,
		InstanceID: req.GameInstanceID,
		Message:    fmt.Sprintf("%s %s", req.Type, strings.TrimPrefix(string(evtType), "transaction.")),
		Metadata:   meta,
	})
}
