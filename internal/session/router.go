package session

import "go.uber.org/zap"

// router fans notices out to connected participants. Connections live here,
// keyed by participant id, rather than on the participant records.
type router struct {
	conns map[int]*Outbox
	log   *zap.Logger
}

func newRouter(log *zap.Logger) *router {
	return &router{conns: make(map[int]*Outbox), log: log}
}

func (r *router) attach(id int, o *Outbox) { r.conns[id] = o }

// detach removes and closes o if it is still the participant's connection.
func (r *router) detach(id int, o *Outbox) {
	if cur, ok := r.conns[id]; ok && (o == nil || cur == o) {
		delete(r.conns, id)
		cur.Close()
	}
}

// release detaches o from every seat it is attached to.
func (r *router) release(o *Outbox) {
	for id, cur := range r.conns {
		if cur == o {
			r.detach(id, o)
		}
	}
}

func (r *router) connected(id int) bool {
	_, ok := r.conns[id]
	return ok
}

func (r *router) send(id int, n Notice) {
	o, ok := r.conns[id]
	if !ok {
		return
	}
	if !o.Push(n) {
		// Slow or gone; the liveness tick picks this up.
		r.log.Warn("dropping participant connection", zap.Int("participant_id", id))
		r.detach(id, o)
	}
}

func (r *router) broadcast(n Notice) { r.broadcastExcept(n, -1) }

func (r *router) broadcastExcept(n Notice, skip int) {
	for id := range r.conns {
		if id != skip {
			r.send(id, n)
		}
	}
}

// reply answers a command's sender directly, registered or not.
func (r *router) reply(o *Outbox, n Notice) {
	if o != nil {
		o.Push(n)
	}
}

func (r *router) closeAll() {
	for id, o := range r.conns {
		o.Close()
		delete(r.conns, id)
	}
}
