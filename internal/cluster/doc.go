// Package cluster provides the message-passing primitives the distributed
// search backend is built on.
//
// A group has Size ranks numbered from zero. Each rank owns a mailbox and
// talks to its peers only by sending messages into their mailboxes; no rank
// reads another rank's memory. The operations mirror what the search needs
// and nothing more:
//
//   - Broadcast distributes a payload from a root rank to every rank.
//   - PostStop posts a rank's single non-blocking receive for a stop
//     notification from any peer. The returned Request is polled with Test
//     and withdrawn with Cancel.
//   - SendStop pushes a stop notification to one peer without waiting for
//     delivery.
//   - Gather collects one payload per rank at a root.
//   - Barrier returns once every rank has entered it.
//
// Two transports implement the same Comm: a Hub of in-process channels, used
// when ranks are goroutines, and a gRPC transport (NewGRPCComm) for ranks
// running as separate processes.
package cluster
