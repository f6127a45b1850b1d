package server

import (
	"errors"
	"sync"
	"time"

	"github.com/sw33tLie/estform/internal/utils"
	"github.com/sw33tLie/estform/pkg/dom"
	"github.com/sw33tLie/estform/pkg/form"
	"github.com/sw33tLie/estform/pkg/gateway"
)

// FormConfig holds the controller settings shared by every session.
type FormConfig struct {
	Mode           string
	GroupSelector  string
	Debounce       time.Duration
	NoticeCooldown time.Duration
	Limit          int
	CacheSize      int
}

var errNoSession = errors.New("no such session")

// Event is pushed to websocket subscribers.
type Event struct {
	Type    string `json:"type"`
	HTML    string `json:"html,omitempty"`
	Message string `json:"message,omitempty"`
}

type session struct {
	ctrl *form.Controller

	mu         sync.Mutex
	lastActive time.Time
	subs       map[chan Event]struct{}
}

func (s *session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *session) idle(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActive) > timeout
}

func (s *session) subscribe() chan Event {
	ch := make(chan Event, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *session) unsubscribe(ch chan Event) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

// publish never blocks; a subscriber that fell behind misses the event.
func (s *session) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
			utils.Log.Debugf("[%s] dropping %s event for slow subscriber", s.ctrl.ID, ev.Type)
		}
	}
}

func (s *session) publishRender() {
	html, err := s.ctrl.HTML()
	if err != nil {
		utils.Log.Warnf("[%s] render: %v", s.ctrl.ID, err)
		return
	}
	s.publish(Event{Type: "render", HTML: html})
}

func (s *session) close() {
	s.ctrl.Close()
	s.mu.Lock()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = map[chan Event]struct{}{}
	s.mu.Unlock()
}

func (srv *Server) createSession() (*session, error) {
	doc, err := dom.ParseString(srv.cfg.Template)
	if err != nil {
		return nil, err
	}
	var container *dom.Element
	if srv.cfg.Selector != "" {
		container = doc.First(srv.cfg.Selector)
	}

	sess := &session{lastActive: time.Now(), subs: make(map[chan Event]struct{})}
	fc := srv.cfg.Form
	ctrl, err := form.New(doc, container, form.Options{
		Gateway:        gateway.New(srv.cfg.Source, gateway.WithCache(srv.cache), gateway.WithLogger(utils.Log)),
		GroupSelector:  fc.GroupSelector,
		Mode:           fc.Mode,
		Debounce:       fc.Debounce,
		NoticeCooldown: fc.NoticeCooldown,
		Limit:          fc.Limit,
		Logger:         utils.Log,
		// Publishing counts as acknowledgement; the client shows the notice
		// over the already reset form.
		Notifier: form.NotifierFunc(func(msg string) {
			sess.publish(Event{Type: "notice", Message: msg})
		}),
		OnChange: func() { sess.publishRender() },
	})
	if err != nil {
		return nil, err
	}
	sess.ctrl = ctrl

	srv.mu.Lock()
	srv.expire()
	srv.sessions[ctrl.ID] = sess
	srv.mu.Unlock()
	utils.Log.Debugf("session %s created", ctrl.ID)
	return sess, nil
}

// expire closes idle sessions. Callers hold srv.mu.
func (srv *Server) expire() {
	for id, sess := range srv.sessions {
		if sess.idle(srv.cfg.IdleTimeout) {
			delete(srv.sessions, id)
			go sess.close()
			utils.Log.Debugf("session %s expired", id)
		}
	}
}

func (srv *Server) session(id string) (*session, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	sess, ok := srv.sessions[id]
	if !ok {
		return nil, errNoSession
	}
	sess.touch()
	return sess, nil
}

func (srv *Server) deleteSession(id string) error {
	srv.mu.Lock()
	sess, ok := srv.sessions[id]
	delete(srv.sessions, id)
	srv.mu.Unlock()
	if !ok {
		return errNoSession
	}
	sess.close()
	return nil
}
