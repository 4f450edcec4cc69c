/**
 * Consumer lifecycle surface checks
 *
 * cmd/worker selects a queue driver behind a Start/Stop interface, so
 * both consumer types must keep identical lifecycle signatures.
 */

package queue

type lifecycle interface {
	Start() error
	Stop() error
}

var (
	_ lifecycle = (*Consumer)(nil)
	_ lifecycle = (*RedisConsumer)(nil)
)
