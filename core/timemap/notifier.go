package timemap

import "github.com/sirupsen/logrus"

// Notifier receives the post-update map after every successful write.
// Notification is fire-and-forget: subscribers must not block the
// writer (spec §4.5 "Concurrency"; restored from the Rust original's
// TimeMapNotifier subscriber pattern).
type Notifier interface {
	Notify(snapshot *Map)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(snapshot *Map)

func (f NotifierFunc) Notify(snapshot *Map) { f(snapshot) }

// notifyAll fires every subscriber with snapshot. Called without the
// map's lock held.
func (m *Map) notifyAll(snapshot *Map, notifiers []Notifier) {
	for _, n := range notifiers {
		n := n
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("component", "timemap.notifier").Errorf("notifier panicked: %v", r)
				}
			}()
			n.Notify(snapshot)
		}()
	}
}

// Subscribe registers n to receive every future update.
func (m *Map) Subscribe(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, n)
}
