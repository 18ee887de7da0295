package mqtt

// statusTopicPrefix is the topic subtree carrying relay liveness status.
// One retained status message is kept per broker connection, keyed by
// client ID, so operators can see which relay connections are up.
const statusTopicPrefix = "ingest-relay/status/"

// StatusTopic returns the liveness status topic for a client ID.
//
// Example: StatusTopic("ingest-relay-public") -> "ingest-relay/status/ingest-relay-public"
func StatusTopic(clientID string) string {
	return statusTopicPrefix + clientID
}
