package execution

import (
	"context"
	"sync"
)

// TicketResult is the outcome of a queued command.
type TicketResult struct {
	OrderID   uint64 // assigned id for submits, target id for cancels
	Cancelled bool   // cancel outcome
	Err       error  // submit validation error
}

// Ticket resolves once the inbox applies its command.
type Ticket struct {
	done chan struct{}
	res  TicketResult
}

func newTicket() *Ticket {
	return &Ticket{done: make(chan struct{})}
}

func (t *Ticket) resolve(res TicketResult) {
	t.res = res
	close(t.done)
}

// Done is closed when the result is available.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the command is applied or ctx is done.
func (t *Ticket) Wait(ctx context.Context) (TicketResult, error) {
	select {
	case <-t.done:
		return t.res, nil
	case <-ctx.Done():
		return TicketResult{}, ctx.Err()
	}
}

type commandKind int

const (
	cmdSubmit commandKind = iota
	cmdSubmitAt
	cmdCancel
)

type command struct {
	kind   commandKind
	req    OrderRequest
	ts     int64
	id     uint64
	ticket *Ticket
}

// Inbox queues submit and cancel commands from other goroutines so they are
// applied between ticks, in arrival order, by the goroutine driving replay.
type Inbox struct {
	sim *Simulator

	mu   sync.Mutex
	cmds []command
}

// NewInbox creates an inbox feeding sim. sim may be nil when the simulator
// is created later; commands then wait until Attach.
func NewInbox(sim *Simulator) *Inbox {
	return &Inbox{sim: sim}
}

// Attach points the inbox at sim. Commands already queued are applied to sim
// on the next Drain.
func (in *Inbox) Attach(sim *Simulator) {
	in.mu.Lock()
	in.sim = sim
	in.mu.Unlock()
}

// Submit queues an order stamped with the simulation time at drain.
func (in *Inbox) Submit(req OrderRequest) *Ticket {
	return in.push(command{kind: cmdSubmit, req: req})
}

// SubmitAt queues an order with an explicit submission time.
func (in *Inbox) SubmitAt(req OrderRequest, ts int64) *Ticket {
	return in.push(command{kind: cmdSubmitAt, req: req, ts: ts})
}

// Cancel queues a cancel for order id.
func (in *Inbox) Cancel(id uint64) *Ticket {
	return in.push(command{kind: cmdCancel, id: id})
}

func (in *Inbox) push(c command) *Ticket {
	c.ticket = newTicket()
	in.mu.Lock()
	in.cmds = append(in.cmds, c)
	in.mu.Unlock()
	return c.ticket
}

// Len returns the number of commands waiting.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.cmds)
}

// Drain applies all queued commands and returns how many were applied.
// Nothing is applied while no simulator is attached.
func (in *Inbox) Drain() int {
	in.mu.Lock()
	sim := in.sim
	if sim == nil {
		in.mu.Unlock()
		return 0
	}
	cmds := in.cmds
	in.cmds = nil
	in.mu.Unlock()

	for _, c := range cmds {
		var res TicketResult
		switch c.kind {
		case cmdSubmit:
			res.OrderID, res.Err = sim.Submit(c.req)
		case cmdSubmitAt:
			res.OrderID, res.Err = sim.SubmitAt(c.req, c.ts)
		case cmdCancel:
			res.OrderID = c.id
			res.Cancelled = sim.Cancel(c.id)
		}
		c.ticket.resolve(res)
	}
	return len(cmds)
}
