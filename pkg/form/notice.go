package form

import (
	"fmt"
	"strings"
)

// Notifier raises a blocking notice. The form is reset as soon as Notify
// returns: an interactive host returns once the user has acknowledged the
// notice, while a headless host treats delivery as acknowledgement. Notify
// runs with the controller locked and must not call back into the controller.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// reject reports mismatches with a single notice and resets the form. Within
// the cooldown after a notice, only the inline messages change.
func (c *Controller) reject(mismatches []Mismatch) {
	now := c.now()
	if now.Before(c.noticeUntil) {
		c.log.Debugf("[%s] notice suppressed for %d mismatches", c.ID, len(mismatches))
		return
	}
	c.noticeUntil = now.Add(c.cooldown)

	msg := noticeMessage(mismatches)
	c.log.Warnf("[%s] %s", c.ID, msg)
	c.notifier.Notify(msg)
	c.reset()
}

func noticeMessage(mismatches []Mismatch) string {
	parts := make([]string, 0, len(mismatches))
	for _, m := range mismatches {
		parts = append(parts, fmt.Sprintf("%s %q", m.Label, m.Value))
	}
	return fmt.Sprintf("This establishment requires %s, which this product does not offer. The form will be reset.",
		strings.Join(parts, " and "))
}
