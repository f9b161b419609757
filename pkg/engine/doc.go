/*
Package engine implements the transaction processor: the
validation/authorization/mutation/caching pipeline every transaction
type goes through, the equipment slot engine, and leveling.

Processor is stateless; every call is parameterized with the
*types.GameState it should operate on, so one Processor serves every
instance in a registry. Process is the single entrypoint transactions
flow through:

	outcome := processor.Process(state, bearerToken, req)

Process replays the cached outcome of a txId it has already seen (via
the idempotency cache), otherwise resolves the bearer token to an
actor, dispatches by req.Type to the matching handler, and returns an Outcome carrying the
HTTP status and JSON body the transport layer writes back verbatim.

views.go implements the read-only endpoints (state version, player
state, character stats) against the same Processor, sharing its actor
resolution and error-code conventions with the mutation path.
*/
package engine
