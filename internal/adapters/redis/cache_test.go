package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "bank_reviews/internal/adapters/redis"
	"bank_reviews/internal/domain"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := newCache(t, mr)
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var got domain.Sentiment
	ok, err := c.Get(ctx, "k", &got)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	want := domain.Sentiment{Label: "positive", Score: 0.9}
	if err := c.Set(ctx, "k", want, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("test:k") {
		t.Fatalf("expected prefixed key in redis, have %v", mr.Keys())
	}

	ok, err = c.Get(ctx, "k", &got)
	if err != nil || !ok || got != want {
		t.Fatalf("expected hit %+v, got %+v ok=%v err=%v", want, got, ok, err)
	}

	mr.FastForward(61 * time.Second)
	if ok, _ := c.Get(ctx, "k", &got); ok {
		t.Fatalf("expected key to expire")
	}

	_ = c.Set(ctx, "k", want, 60)
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("test:k") {
		t.Fatalf("expected key deleted")
	}
}

func newCache(t *testing.T, mr *miniredis.Miniredis) *redisad.Cache {
	t.Helper()
	c := redisad.New(mr.Addr(), "", 0, "test:")
	t.Cleanup(func() { _ = c.Close() })
	return c
}
