package control

import (
	"fmt"
	"time"

	"gomux/internal/format"
	"gomux/internal/mux"
)

// SubscriptionKind is one of spec.md §4.J's five subscription target
// types.
type SubscriptionKind int

const (
	SubSession SubscriptionKind = iota
	SubPane
	SubAllPanes
	SubWindow
	SubAllWindows
)

// subscription is one named, registered format-string watch (spec.md:
// "A client may register a named subscription of type session/pane/
// all-panes/window/all-windows with a format string").
type subscription struct {
	name   string
	kind   SubscriptionKind
	format string

	// target pins session/pane/window subscriptions to one entity;
	// unused for the all-* kinds, which sweep every live entity of
	// that kind each tick.
	sessionName string
	paneID      int
	windowID    int

	// last holds the most recently observed expansion per entity key
	// (a pane/window id as a string, or "" for the singular session/
	// window/pane kinds), so only a changed value emits a line.
	last map[string]string
}

// Subscribe registers or replaces a named subscription.
func (c *Client) Subscribe(name string, kind SubscriptionKind, tmpl, sessionName string, paneID, windowID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[name] = &subscription{
		name:        name,
		kind:        kind,
		format:      tmpl,
		sessionName: sessionName,
		paneID:      paneID,
		windowID:    windowID,
		last:        make(map[string]string),
	}
}

// Unsubscribe removes a named subscription.
func (c *Client) Unsubscribe(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, name)
}

// EvaluateSubscriptions runs every registered subscription's format
// string against current state and emits a %subscription-changed line
// for each entity whose expansion differs from what was last observed.
// Meant to be called once per second (spec.md: "A one-second timer
// evaluates each subscription").
func (c *Client) EvaluateSubscriptions(now time.Time) {
	c.mu.Lock()
	subs := make([]*subscription, 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		c.evaluateOne(sub)
	}
}

func (c *Client) evaluateOne(sub *subscription) {
	switch sub.kind {
	case SubSession:
		for _, sess := range c.srv.AllSessions() {
			if sess.Name == sub.sessionName {
				c.evalAndEmit(sub, "", subscriptionTarget{sessionName: sess.Name}, c.srv.Vars(sess, nil, nil))
				return
			}
		}
	case SubPane:
		for _, pane := range c.srv.AllPanes() {
			if pane.ID == sub.paneID {
				win := c.srv.WindowOf(pane)
				sess := c.srv.SessionOf(win)
				c.evalAndEmit(sub, fmt.Sprintf("%d", pane.ID),
					subscriptionTarget{sessionName: sessName(sess), hasPane: true, paneID: pane.ID},
					c.srv.Vars(sess, win, pane))
				return
			}
		}
	case SubWindow:
		for _, win := range c.srv.AllWindows() {
			if win.ID == sub.windowID {
				sess := c.srv.SessionOf(win)
				c.evalAndEmit(sub, "",
					subscriptionTarget{sessionName: sessName(sess), hasWindow: true, windowID: win.ID, winIdx: winIdxIn(sess, win)},
					c.srv.Vars(sess, win, nil))
				return
			}
		}
	case SubAllPanes:
		for _, pane := range c.srv.AllPanes() {
			win := c.srv.WindowOf(pane)
			sess := c.srv.SessionOf(win)
			key := fmt.Sprintf("%d", pane.ID)
			c.evalAndEmit(sub, key,
				subscriptionTarget{sessionName: sessName(sess), hasPane: true, paneID: pane.ID},
				c.srv.Vars(sess, win, pane))
		}
	case SubAllWindows:
		for _, win := range c.srv.AllWindows() {
			sess := c.srv.SessionOf(win)
			key := fmt.Sprintf("%d", win.ID)
			c.evalAndEmit(sub, key,
				subscriptionTarget{sessionName: sessName(sess), hasWindow: true, windowID: win.ID, winIdx: winIdxIn(sess, win)},
				c.srv.Vars(sess, win, nil))
		}
	}
}

func (c *Client) evalAndEmit(sub *subscription, key string, target subscriptionTarget, vars format.Vars) {
	value := format.Expand(sub.format, vars)

	c.mu.Lock()
	live, ok := c.subs[sub.name]
	if !ok {
		c.mu.Unlock()
		return
	}
	changed := live.last[key] != value
	live.last[key] = value
	c.mu.Unlock()

	if changed {
		c.emit(subscriptionChangedLine(sub.name, target, value))
	}
}

func sessName(sess *mux.Session) string {
	if sess == nil {
		return ""
	}
	return sess.Name
}

func winIdxIn(sess *mux.Session, win *mux.Window) int {
	if sess == nil {
		return 0
	}
	for _, wl := range sess.Winlinks {
		if wl.Window == win {
			return wl.Index
		}
	}
	return 0
}
