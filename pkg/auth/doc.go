/*
Package auth implements bearer-token resolution for one game instance:
ordinary actor tokens resolve against the instance's own actor table,
while the three admin operations (CreateActor, GrantResources,
GrantCharacterResources) are gated on a separate process-wide admin key
configured at startup. The engine never parses, hashes, or otherwise
inspects a token's contents — identity ownership belongs to the
external edge service.
*/
package auth
