/*
Package instance ties the transaction processor, the snapshot store,
and the migrator together into the one long-lived object a host
process constructs at startup:

	reg, err := instance.New(instance.Config{
	    IdempotencyBound: 10000,
	    SnapshotDir:      "/var/lib/statekeep",
	    SnapshotInterval: 30 * time.Second,
	}, gameConfig, algorithmRegistry, authorizer, broker)

	out := reg.Process(instanceID, bearerToken, req)
	defer reg.Shutdown()
*/
package instance
