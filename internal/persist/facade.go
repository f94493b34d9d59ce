package persist

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aboucelia/chatapp/internal/kv"
	"github.com/aboucelia/chatapp/internal/model"
	"go.uber.org/zap"
)

// Facade reads and writes typed collections as JSON blobs in a kv.Store.
// It never returns errors: failed reads yield nil/empty values and failed
// writes are logged and dropped.
type Facade struct {
	store  kv.Store
	logger *zap.Logger
}

// New creates a facade over store.
func New(store kv.Store, logger *zap.Logger) *Facade {
	return &Facade{store: store, logger: logger}
}

// User returns the persisted account, or nil.
func (f *Facade) User(ctx context.Context) *model.User {
	var u *model.User
	if !f.read(ctx, KeyUser, &u) {
		return nil
	}
	return u
}

// SetUser stores u. A nil user removes the key.
func (f *Facade) SetUser(ctx context.Context, u *model.User) {
	if u == nil {
		if err := f.store.Remove(ctx, KeyUser); err != nil {
			f.logger.Error("error removing user", zap.Error(err))
		}
		return
	}
	f.write(ctx, KeyUser, u)
}

func (f *Facade) Contacts(ctx context.Context) []model.User {
	var out []model.User
	if !f.read(ctx, KeyContacts, &out) {
		return []model.User{}
	}
	return nonNil(out)
}

func (f *Facade) SetContacts(ctx context.Context, contacts []model.User) {
	f.write(ctx, KeyContacts, nonNil(contacts))
}

func (f *Facade) Chats(ctx context.Context) []model.Chat {
	var out []model.Chat
	if !f.read(ctx, KeyChats, &out) {
		return []model.Chat{}
	}
	return nonNil(out)
}

func (f *Facade) SetChats(ctx context.Context, chats []model.Chat) {
	f.write(ctx, KeyChats, nonNil(chats))
}

// Messages returns the stored message list for chatID; unknown ids yield an
// empty list.
func (f *Facade) Messages(ctx context.Context, chatID string) []model.Message {
	var out []model.Message
	if !f.read(ctx, MessagesKey(chatID), &out) {
		return []model.Message{}
	}
	return nonNil(out)
}

func (f *Facade) SetMessages(ctx context.Context, chatID string, msgs []model.Message) {
	f.write(ctx, MessagesKey(chatID), nonNil(msgs))
}

// RemoveMessages drops the stored message list for chatID.
func (f *Facade) RemoveMessages(ctx context.Context, chatID string) {
	if err := f.store.Remove(ctx, MessagesKey(chatID)); err != nil {
		f.logger.Error("error removing messages", zap.String("chat_id", chatID), zap.Error(err))
	}
}

func (f *Facade) Calls(ctx context.Context) []model.Call {
	var out []model.Call
	if !f.read(ctx, KeyCalls, &out) {
		return []model.Call{}
	}
	return nonNil(out)
}

func (f *Facade) SetCalls(ctx context.Context, calls []model.Call) {
	f.write(ctx, KeyCalls, nonNil(calls))
}

func (f *Facade) Statuses(ctx context.Context) []model.Status {
	var out []model.Status
	if !f.read(ctx, KeyStatuses, &out) {
		return []model.Status{}
	}
	return nonNil(out)
}

func (f *Facade) SetStatuses(ctx context.Context, statuses []model.Status) {
	f.write(ctx, KeyStatuses, nonNil(statuses))
}

// ClearAll removes every key under Prefix. Keys outside the namespace are
// left alone.
func (f *Facade) ClearAll(ctx context.Context) {
	keys, err := f.store.Keys(ctx)
	if err != nil {
		f.logger.Error("error clearing storage", zap.Error(err))
		return
	}
	var own []string
	for _, k := range keys {
		if strings.HasPrefix(k, Prefix) {
			own = append(own, k)
		}
	}
	if err := f.store.Remove(ctx, own...); err != nil {
		f.logger.Error("error clearing storage", zap.Error(err))
		return
	}
	f.logger.Debug("storage cleared", zap.Int("keys", len(own)))
}

// read decodes key into dst. It reports false when the key is absent or the
// stored value cannot be decoded.
func (f *Facade) read(ctx context.Context, key string, dst any) bool {
	raw, ok, err := f.store.Get(ctx, key)
	if err != nil {
		f.logger.Error("error loading key", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		f.logger.Warn("discarding undecodable value", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (f *Facade) write(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		f.logger.Error("error encoding value", zap.String("key", key), zap.Error(err))
		return
	}
	if err := f.store.Set(ctx, key, string(data)); err != nil {
		f.logger.Error("error saving key", zap.String("key", key), zap.Error(err))
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
