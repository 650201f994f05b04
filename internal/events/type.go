package events

import "github.com/aws/aws-lambda-go/events"

// EventFilter is one handler in the table's change stream pipeline:
// Filter selects the records it understands, Apply mirrors them.
type EventFilter interface {
	Filter(record events.DynamoDBEventRecord) bool
	Apply(record events.DynamoDBEventRecord) error
}
