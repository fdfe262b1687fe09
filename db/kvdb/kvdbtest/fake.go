// Package kvdbtest provides a map-backed kvdb.Client for tests.
package kvdbtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/libresign/libresign/db/kvdb"
)

type Fake struct {
	mu      sync.Mutex
	strings map[string]string
	lists   map[string][]string
	hashes  map[string]map[string]string
	expires map[string]time.Duration // last TTL applied per key

	// FailNext makes the next operation return this error once.
	FailNext error
}

var _ kvdb.Client = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		strings: make(map[string]string),
		lists:   make(map[string][]string),
		hashes:  make(map[string]map[string]string),
		expires: make(map[string]time.Duration),
	}
}

func (f *Fake) failure() error {
	err := f.FailNext
	f.FailNext = nil
	return err
}

func (f *Fake) Init() error        { return nil }
func (f *Fake) Close() error       { return nil }
func (f *Fake) GetHandle() any     { return nil }
func (f *Fake) GetConf() *kvdb.Conf { return &kvdb.Conf{Type: "fake"} }

// LastExpire reports the most recent TTL applied to key via Set or Expire.
func (f *Fake) LastExpire(key string) (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.expires[key]
	return d, ok
}

//---- Key Ops ----

func (f *Fake) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return false, err
	}
	return f.hasKey(key), nil
}

func (f *Fake) hasKey(key string) bool {
	if _, ok := f.strings[key]; ok {
		return true
	}
	if _, ok := f.lists[key]; ok {
		return true
	}
	_, ok := f.hashes[key]
	return ok
}

func (f *Fake) Delete(_ context.Context, keys ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return 0, err
	}
	var n int64
	for _, key := range keys {
		if f.hasKey(key) {
			n++
		}
		delete(f.strings, key)
		delete(f.lists, key)
		delete(f.hashes, key)
		delete(f.expires, key)
	}
	return n, nil
}

func (f *Fake) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return false, err
	}
	if !f.hasKey(key) {
		return false, nil
	}
	f.expires[key] = expiration
	return true, nil
}

//---- Single-value Ops ----

func (f *Fake) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return err
	}
	f.strings[key] = fmt.Sprint(value)
	if expiration > 0 {
		f.expires[key] = expiration
	}
	return nil
}

func (f *Fake) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return "", false, err
	}
	val, ok := f.strings[key]
	return val, ok, nil
}

//---- List Ops ----

func (f *Fake) Push(_ context.Context, key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return err
	}
	f.lists[key] = append(f.lists[key], value)
	return nil
}

func (f *Fake) Pop(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return "", false, err
	}
	list := f.lists[key]
	if len(list) == 0 {
		return "", false, nil
	}
	val := list[0]
	if len(list) == 1 {
		delete(f.lists, key)
	} else {
		f.lists[key] = list[1:]
	}
	return val, true, nil
}

func (f *Fake) Len(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return 0, err
	}
	return int64(len(f.lists[key])), nil
}

func (f *Fake) Range(_ context.Context, key string, start, stop int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return nil, err
	}
	list := f.lists[key]
	n := int64(len(list))
	if start < 0 {
		start = n + start
	}
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return nil, nil
	}
	out := make([]string, 0, stop-start+1)
	out = append(out, list[start:stop+1]...)
	return out, nil
}

//---- Hash Ops ----

func (f *Fake) SetField(_ context.Context, key string, field string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return err
	}
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	f.hashes[key][field] = fmt.Sprint(value)
	return nil
}

func (f *Fake) GetField(_ context.Context, key string, field string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return "", false, err
	}
	hash, ok := f.hashes[key]
	if !ok {
		return "", false, nil
	}
	val, ok := hash[field]
	return val, ok, nil
}

func (f *Fake) SetFields(_ context.Context, key string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return err
	}
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	for field, value := range fields {
		f.hashes[key][field] = fmt.Sprint(value)
	}
	return nil
}

func (f *Fake) GetFields(_ context.Context, key string, fields ...string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return nil, err
	}
	rtnMap := make(map[string]string, len(fields))
	hash := f.hashes[key]
	for _, field := range fields {
		if val, ok := hash[field]; ok {
			rtnMap[field] = val
		}
	}
	return rtnMap, nil
}

func (f *Fake) RemoveFields(_ context.Context, key string, fields ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return 0, err
	}
	hash := f.hashes[key]
	var n int64
	for _, field := range fields {
		if _, ok := hash[field]; ok {
			delete(hash, field)
			n++
		}
	}
	return n, nil
}

func (f *Fake) GetAllFields(_ context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(f.hashes[key]))
	for field, val := range f.hashes[key] {
		out[field] = val
	}
	return out, nil
}
