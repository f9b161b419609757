/*
Package events provides an in-memory pub/sub broker for engine lifecycle
events: transaction.accepted, transaction.rejected, instance.snapshotted,
and instance.migrated. Delivery is best-effort: Publish blocks only
while the broker's intake queue is full, and the broadcast never blocks
— a subscriber with a full buffer skips the event rather than stalling
the broadcaster, and every skipped event is counted in
metrics.EventsDroppedTotal so a chronically slow subscriber shows up on
/metrics instead of silently missing events. Both the broker's own
intake queue (NewBroker's optional argument) and each subscriber's
buffer (Broker.WithSubscriberDepth) can be sized to the expected
consumer count; both default to a depth tuned for a handful of
in-process subscribers.

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)
	go func() {
		for evt := range sub {
			log.Info(evt.Message)
		}
	}()

	broker.Publish(&events.Event{Type: events.EventTransactionAccepted, InstanceID: "instance_001"})
*/
package events
