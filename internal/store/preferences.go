package store

import (
	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/kv"
	"github.com/dukerupert/lifemate/internal/model"
)

// PreferenceStore holds the chosen language and the notification permission.
type PreferenceStore struct {
	kv *kv.Store
}

func NewPreferenceStore(kvs *kv.Store) *PreferenceStore {
	return &PreferenceStore{kv: kvs}
}

// Language returns the chosen language; ok is false until one is chosen.
func (s *PreferenceStore) Language() (lang i18n.LanguageCode, ok bool) {
	var stored *i18n.LanguageCode
	stored = kv.Load(s.kv, kv.KeyLanguage, stored)
	if stored == nil {
		return i18n.Fallback, false
	}
	if code, valid := i18n.Parse(string(*stored)); valid {
		return code, true
	}
	return i18n.Fallback, false
}

func (s *PreferenceStore) SetLanguage(code i18n.LanguageCode) error {
	code, ok := i18n.Parse(string(code))
	if !ok {
		return ErrInvalidInput
	}
	kv.Save(s.kv, kv.KeyLanguage, code)
	return nil
}

// Permission returns the notification permission, "default" until set.
func (s *PreferenceStore) Permission() model.NotificationPermission {
	p := kv.Load(s.kv, kv.KeyNotificationPerm, model.PermissionDefault)
	if !p.Valid() {
		return model.PermissionDefault
	}
	return p
}

func (s *PreferenceStore) SetPermission(p model.NotificationPermission) error {
	if !p.Valid() {
		return ErrInvalidInput
	}
	kv.Save(s.kv, kv.KeyNotificationPerm, p)
	return nil
}
