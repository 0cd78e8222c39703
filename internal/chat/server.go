package chat

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/nlopez/go-prodportal/internal/auth"
	"github.com/nlopez/go-prodportal/internal/stats"
	"github.com/teris-io/shortid"
)

var (
	// ErrNotAuthenticated is returned for an event from a connection whose
	// session is no longer registered. The event is dropped.
	ErrNotAuthenticated = errors.New("session not authenticated")
	// ErrInvalidSession indicates an engine operation was invoked without a
	// usable session, which is a wiring defect rather than a runtime
	// condition.
	ErrInvalidSession = errors.New("invalid session")
)

const (
	metricTotalConnections  = "TotalConnections"
	metricLiveSessions      = "LiveSessions"
	metricMessagesBroadcast = "MessagesBroadcast"
	metricEventsDropped     = "EventsDropped"
)

type joinRequest struct {
	sess *Session
	done chan error
}

type sessionEvent struct {
	sess  *Session
	event clientEvent
}

type stopRequest struct {
	done chan struct{}
}

// ChatServer owns the single global room. All registry mutations and
// broadcast fan-out happen on the Run goroutine, so recipients observe each
// sender's events in submission order. Network writes never happen on the
// dispatch goroutine; delivery to each client goes through its buffered
// send channel.
type ChatServer struct {
	log       *log.Logger
	stats     stats.StatsProvider
	registry  *Registry
	joinChan  chan *joinRequest
	leaveChan chan string
	eventChan chan *sessionEvent
	stop      chan *stopRequest
	done      chan struct{}

	generateSessionId func() (string, error)
}

func NewChatServer(logger *log.Logger, su stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:               logger,
		stats:             su,
		registry:          NewRegistry(),
		joinChan:          make(chan *joinRequest),
		leaveChan:         make(chan string, 256),
		eventChan:         make(chan *sessionEvent, 256),
		stop:              make(chan *stopRequest),
		done:              make(chan struct{}),
		generateSessionId: shortid.Generate,
	}

	for _, name := range []string{
		metricTotalConnections,
		metricLiveSessions,
		metricMessagesBroadcast,
		metricEventsDropped,
	} {
		cs.stats.RegisterMetric(name)
	}

	return cs, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case req := <-cs.joinChan:
			req.done <- cs.handleJoin(req.sess)
		case sessionId := <-cs.leaveChan:
			cs.handleLeave(sessionId)
		case ev := <-cs.eventChan:
			if err := cs.handleEvent(ev); err != nil {
				cs.log.Println("handle event:", err)
			}
		case req := <-cs.stop:
			cs.handleShutdown()
			close(req.done)
			close(cs.done)
			return
		}
	}
}

// Connect binds an upgraded transport connection to a new session and joins
// it to the room. It returns once the join has been processed, so the caller
// can start the read pump knowing every later inbound event is post-join.
func (cs *ChatServer) Connect(client *Client, principal auth.Principal) (*Session, error) {
	sessionId, err := cs.generateSessionId()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	sess := &Session{
		Id:          sessionId,
		Principal:   principal,
		ConnectedAt: Now(),
		client:      client,
	}
	client.sess = sess

	req := &joinRequest{sess: sess, done: make(chan error, 1)}
	select {
	case cs.joinChan <- req:
	case <-cs.done:
		return nil, fmt.Errorf("chat server is shut down")
	}

	if err := <-req.done; err != nil {
		return nil, err
	}

	return sess, nil
}

// Leave removes the session from the room. Safe to call more than once for
// the same session.
func (cs *ChatServer) Leave(sessionId string) {
	select {
	case cs.leaveChan <- sessionId:
	case <-cs.done:
	}
}

// submit hands an inbound event to the dispatch loop. Delivery is best
// effort: if the loop is saturated the event is dropped rather than
// blocking the reader.
func (cs *ChatServer) submit(ev *sessionEvent) {
	select {
	case cs.eventChan <- ev:
	default:
		cs.log.Printf("event channel full, dropping event from session %q", ev.sess.Id)
		cs.stats.Incr(metricEventsDropped)
	}
}

// SessionCount reports the number of live sessions.
func (cs *ChatServer) SessionCount() int {
	return cs.registry.Count()
}

func (cs *ChatServer) handleJoin(sess *Session) error {
	if sess == nil || sess.Id == "" {
		return ErrInvalidSession
	}

	if err := cs.registry.Register(sess); err != nil {
		return fmt.Errorf("register session: %w", err)
	}

	cs.stats.Incr(metricTotalConnections)
	cs.stats.Incr(metricLiveSessions)
	cs.log.Printf("session %q joined for user %q", sess.Id, sess.Principal.Username)

	// the joining session receives no echo of its own join notice
	cs.broadcast(userJoinedEvent(sess.Principal.Username), cs.registry.ListOthers(sess.Id))
	return nil
}

func (cs *ChatServer) handleLeave(sessionId string) {
	sess, err := cs.registry.Deregister(sessionId)
	if err != nil {
		// duplicate disconnect signal, nothing to do
		cs.log.Printf("deregister session %q: %v", sessionId, err)
		return
	}

	cs.stats.Decr(metricLiveSessions)
	cs.log.Printf("session %q left for user %q", sess.Id, sess.Principal.Username)

	// recipients are computed after removal so the leaving session is
	// never in its own leave notice
	cs.broadcast(userLeftEvent(sess.Principal.Username), cs.registry.ListOthers(sessionId))
}

func (cs *ChatServer) handleEvent(ev *sessionEvent) error {
	if ev == nil || ev.sess == nil || ev.sess.Id == "" {
		return ErrInvalidSession
	}

	if _, ok := cs.registry.Get(ev.sess.Id); !ok {
		return fmt.Errorf("dropping event from session %q: %w", ev.sess.Id, ErrNotAuthenticated)
	}

	// identity always comes from the session, never from the payload
	username := ev.sess.Principal.Username
	others := cs.registry.ListOthers(ev.sess.Id)

	switch ev.event.kind {
	case eventChat:
		cs.broadcast(chatMessageEvent(username, ev.event.body, Now()), others)
		cs.stats.Incr(metricMessagesBroadcast)
	case eventTyping:
		cs.broadcast(typingEvent(username), others)
	case eventStopTyping:
		cs.broadcast(stopTypingEvent(username), others)
	case eventUnknown:
		// tolerated for protocol evolution
	}

	return nil
}

func (cs *ChatServer) broadcast(evt *ServerEvent, recipients []*Session) {
	for _, sess := range recipients {
		if sess.client == nil {
			continue
		}

		if !sess.client.queueEvent(evt) {
			cs.log.Printf("send buffer full for session %q, dropping event", sess.Id)
			cs.stats.Incr(metricEventsDropped)
		}
	}
}

func (cs *ChatServer) handleShutdown() {
	cs.log.Println("closing all sessions")
	for _, sess := range cs.registry.ListOthers("") {
		cs.registry.Deregister(sess.Id)
		if sess.client != nil {
			sess.client.stopClient()
		}
	}
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	req := &stopRequest{done: make(chan struct{})}

	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
