package security

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
)

var ErrKeyNotFound = errors.New("signing key not found in JWKS")

const (
	defaultJWKSRefresh = time.Hour
	// kid 未命中时两次强制刷新的最小间隔
	minJWKSRefetch = 30 * time.Second
)

// JWKSCache 进程内 kid -> 公钥 缓存
// 读者拿到的是 map 快照，刷新时整体替换，不对单个条目加锁
type JWKSCache struct {
	url     string
	client  *http.Client
	refresh time.Duration

	mu          sync.RWMutex
	keys        map[string]interface{}
	fetchedAt   time.Time
	lastAttempt time.Time
}

func NewJWKSCache(url string, client *http.Client) *JWKSCache {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &JWKSCache{
		url:     url,
		client:  client,
		refresh: defaultJWKSRefresh,
		keys:    map[string]interface{}{},
	}
}

func (c *JWKSCache) snapshot() (map[string]interface{}, time.Time, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys, c.fetchedAt, c.lastAttempt
}

// Key 返回 kid 对应的公钥，缓存过期或未命中时重新拉取
func (c *JWKSCache) Key(ctx context.Context, kid string) (interface{}, error) {
	keys, fetchedAt, lastAttempt := c.snapshot()
	key, ok := keys[kid]
	fresh := time.Since(fetchedAt) < c.refresh
	if ok && fresh {
		return key, nil
	}

	if !ok && fresh && time.Since(lastAttempt) < minJWKSRefetch {
		return nil, ErrKeyNotFound
	}

	if err := c.Refresh(ctx); err != nil {
		// 拉取失败时容忍过期的缓存
		if ok {
			return key, nil
		}
		return nil, err
	}

	keys, _, _ = c.snapshot()
	if key, ok := keys[kid]; ok {
		return key, nil
	}
	return nil, ErrKeyNotFound
}

func (c *JWKSCache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.lastAttempt = time.Now()
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fetch jwks: status %d: %s", resp.StatusCode, string(body))
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]interface{}, len(set.Keys))
	for _, k := range set.Keys {
		if k.KeyID == "" || !k.Valid() {
			continue
		}
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		keys[k.KeyID] = k.Public().Key
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}
