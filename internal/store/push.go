package store

import (
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/lifemate/internal/idgen"
	"github.com/dukerupert/lifemate/internal/kv"
	"github.com/dukerupert/lifemate/internal/model"
)

// PushStore keeps Web Push subscriptions, one per endpoint.
type PushStore struct {
	kv  *kv.Store
	ids *idgen.Generator
	mu  sync.Mutex
}

func NewPushStore(kvs *kv.Store, ids *idgen.Generator) *PushStore {
	s := &PushStore{kv: kvs, ids: ids}
	for _, sub := range s.load() {
		ids.Observe(sub.ID)
	}
	return s
}

func (s *PushStore) load() []model.PushSubscription {
	return kv.Load(s.kv, kv.KeyPushSubscriptions, []model.PushSubscription{})
}

// Subscribe stores a subscription. Re-subscribing an endpoint refreshes its
// keys and keeps its id.
func (s *PushStore) Subscribe(endpoint, p256dh, auth, deviceName string) (model.PushSubscription, error) {
	if strings.TrimSpace(endpoint) == "" || p256dh == "" || auth == "" {
		return model.PushSubscription{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.load()
	for i := range subs {
		if subs[i].Endpoint == endpoint {
			subs[i].P256dhKey = p256dh
			subs[i].AuthKey = auth
			subs[i].DeviceName = deviceName
			kv.Save(s.kv, kv.KeyPushSubscriptions, subs)
			return subs[i], nil
		}
	}

	sub := model.PushSubscription{
		ID:         s.ids.Next(),
		Endpoint:   endpoint,
		P256dhKey:  p256dh,
		AuthKey:    auth,
		DeviceName: deviceName,
		CreatedAt:  time.Now().UTC(),
	}
	kv.Save(s.kv, kv.KeyPushSubscriptions, append(subs, sub))
	return sub, nil
}

func (s *PushStore) List() []model.PushSubscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Delete removes a subscription by id. A missing id is not an error.
func (s *PushStore) Delete(id int64) {
	s.remove(func(sub model.PushSubscription) bool { return sub.ID == id })
}

// DeleteByEndpoint removes the subscription for endpoint, used when the push
// service reports it gone.
func (s *PushStore) DeleteByEndpoint(endpoint string) {
	s.remove(func(sub model.PushSubscription) bool { return sub.Endpoint == endpoint })
}

func (s *PushStore) remove(match func(model.PushSubscription) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.load()
	kept := subs[:0]
	for _, sub := range subs {
		if !match(sub) {
			kept = append(kept, sub)
		}
	}
	if len(kept) != len(subs) {
		kv.Save(s.kv, kv.KeyPushSubscriptions, kept)
	}
}
