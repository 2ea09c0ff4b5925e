package coord

import "github.com/roach88/soloq/internal/envelope"

// listen is the worker's single bus listener. It decodes each frame and
// dispatches it; anything unparseable is dropped without further effect.
// Runs until the subscription closes.
func (w *Worker) listen() {
	defer w.wg.Done()

	for frame := range w.sub.C() {
		msg, err := envelope.Decode(frame)
		if err != nil {
			w.logger.Debug("dropping malformed message", "worker", w.id, "error", err)
			continue
		}
		w.dispatch(msg)
	}
}

// dispatch routes one decoded message.
func (w *Worker) dispatch(msg envelope.Message) {
	switch msg.Type {
	case envelope.KindQueryRequest:
		// Only the leader serves requests. That covers the requester's own
		// copy of its broadcast (a follower), and the leader never
		// forwards in the first place.
		if !w.isLeader.Load() {
			return
		}
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.serveRequest(msg)
		}()

	case envelope.KindQueryResponse:
		w.settle(msg)

	case envelope.KindNewLeader:
		// Informational; reserved for future re-election handling.
		w.logger.Debug("observed leadership announcement",
			"worker", w.id, "leader", msg.LeaderID)
	}
}

// serveRequest executes a forwarded statement against the local handle
// and publishes exactly one response tagged with the original id.
func (w *Worker) serveRequest(req envelope.Message) {
	var resp envelope.Message

	if handle := w.currentHandle(); handle == nil {
		resp = envelope.NewErrorResponse(req.QueryID, ErrNotInitialized.Error())
	} else if result, err := handle.Execute(w.runCtx, req.SQL); err != nil {
		resp = envelope.NewErrorResponse(req.QueryID, err.Error())
	} else {
		resp = envelope.NewQueryResponse(req.QueryID, result)
	}

	if err := w.bus.Publish(resp); err != nil {
		w.logger.Debug("publishing query response failed",
			"worker", w.id, "queryId", req.QueryID, "error", err)
	}
}

// settle resolves the pending entry matching a response id, exactly once.
// A response whose id is absent from this worker's table is inert: it was
// broadcast to everyone but meant for someone else, or its query already
// timed out.
func (w *Worker) settle(msg envelope.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch, ok := w.pending[msg.QueryID]
	if !ok {
		return
	}
	delete(w.pending, msg.QueryID)

	// Buffered channel, send cannot block.
	if msg.IsError() {
		ch <- outcome{errText: *msg.Error, isErr: true}
	} else {
		ch <- outcome{result: *msg.Result}
	}
}
