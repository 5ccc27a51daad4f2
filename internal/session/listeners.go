package session

import (
	"github.com/goccy/go-json"

	"github.com/openoption/blitzws/internal/protocol"
)

// registerListeners wires the push-event handlers that keep session state
// in sync. The handlers are the only writers of the caches they touch.
// Idempotent: Start may be re-invoked after an auth failure.
func (s *Session) registerListeners() {
	if len(s.subs) > 0 {
		return
	}
	s.subs = append(s.subs,
		s.d.Subscribe(protocol.EvUnderlyingListChanged, s.onUnderlyingListChanged),
		s.d.Subscribe(protocol.EvInitializationData, s.onInitializationData),
		s.d.Subscribe(protocol.EvOrderChanged, s.onOrderChanged),
		s.d.Subscribe(protocol.EvProfile, s.onProfile),
		s.d.Subscribe(protocol.EvFeatures, s.onFeatures),
		s.d.Subscribe(protocol.EvUserSettings, s.onUserSettings),
	)
}

// onOrderChanged logs order lifecycle pushes. Settlement tracking keys
// off position-changed; these are informational.
func (s *Session) onOrderChanged(msg *protocol.Message) {
	s.logger.Debug("order changed", "msg", string(msg.Msg))
}

// onUnderlyingListChanged replaces one category's record set. The
// category is inferred from the inner payload's own channel name.
func (s *Session) onUnderlyingListChanged(msg *protocol.Message) {
	var list protocol.UnderlyingList
	if err := unmarshal(msg.Msg, &list); err != nil {
		s.logger.Error("underlying list decode failed", "error", err)
		return
	}

	category := categoryFromEventName(list.InnerName)
	if category == "unknown" && list.InnerName == "" {
		// Some pushes omit the inner name entirely; fall back to the
		// envelope name, which may carry the same prefix.
		category = categoryFromEventName(msg.Name)
	}

	records := make(map[string]protocol.AssetRecord, len(list.Underlying))
	for _, rec := range list.Records() {
		key := rec.Key()
		if key == "" {
			continue
		}
		if rec.Category == "" {
			rec.Category = category
		}
		records[key] = rec
	}

	s.catalog.ReplaceCategory(category, records)
	s.logger.Info("catalog category updated", "category", category, "count", len(records))
}

// onInitializationData ingests the full catalog snapshot: every key that
// holds an actives block becomes a category replacement.
func (s *Session) onInitializationData(msg *protocol.Message) {
	var data protocol.InitializationData
	if err := unmarshal(msg.Msg, &data); err != nil {
		s.logger.Error("initialization-data decode failed", "error", err)
		return
	}

	total := 0
	for category := range data {
		records := data.CategoryActives(category)
		if records == nil {
			continue
		}
		s.catalog.ReplaceCategory(category, records)
		total += len(records)
	}

	s.logger.Info("initialization data applied", "actives", total)
}

func (s *Session) onProfile(msg *protocol.Message) {
	var p protocol.Profile
	if err := unmarshal(msg.Msg, &p); err != nil {
		s.logger.Error("profile decode failed", "error", err)
		return
	}
	p.Raw = msg.Msg

	s.stateMu.Lock()
	s.profile = p
	s.stateMu.Unlock()

	s.logger.Info("profile updated", "user_id", p.UserID)
}

func (s *Session) onFeatures(msg *protocol.Message) {
	var list protocol.FeatureList
	if err := unmarshal(msg.Msg, &list); err != nil {
		s.logger.Error("features decode failed", "error", err)
		return
	}

	s.stateMu.Lock()
	for _, f := range list.Features {
		if f.Name != "" {
			s.features[f.Name] = f.Status
		}
	}
	count := len(s.features)
	s.stateMu.Unlock()

	s.logger.Debug("features updated", "count", count)
}

func (s *Session) onUserSettings(msg *protocol.Message) {
	var settings protocol.UserSettings
	if err := unmarshal(msg.Msg, &settings); err != nil {
		s.logger.Error("user-settings decode failed", "error", err)
		return
	}

	s.stateMu.Lock()
	for _, conf := range settings.Configs {
		if conf.Name != "" {
			s.settings[conf.Name] = conf.Config
		}
	}
	s.stateMu.Unlock()

	s.logger.Debug("user settings updated")
}

// Profile returns the last profile push received.
func (s *Session) Profile() protocol.Profile {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.profile
}

// Feature returns a platform feature flag's status.
func (s *Session) Feature(name string) (string, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	status, ok := s.features[name]
	return status, ok
}

// Setting returns a named user-settings blob.
func (s *Session) Setting(name string) (json.RawMessage, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	conf, ok := s.settings[name]
	return conf, ok
}
