package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// 三種實作跑同一組測試
type StoreTestSuite struct {
	suite.Suite
	newStore func() Store
}

func (s *StoreTestSuite) TestSetGetDelete() {
	ctx := context.Background()
	st := s.newStore()

	_, ok, err := st.Get(ctx, "mami_token")
	s.Require().NoError(err)
	s.Require().False(ok)

	s.Require().NoError(st.Set(ctx, "mami_token", "a.b.c"))
	s.Require().NoError(st.Set(ctx, "mami_role", "admin"))

	v, ok, err := st.Get(ctx, "mami_token")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal("a.b.c", v)

	s.Require().NoError(st.Delete(ctx, "mami_token", "mami_role", "missing"))
	_, ok, _ = st.Get(ctx, "mami_role")
	s.Require().False(ok)
}

func (s *StoreTestSuite) TestJSONHelpers() {
	ctx := context.Background()
	st := s.newStore()

	type item struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	}
	s.Require().NoError(SetJSON(ctx, st, "cart", []item{{ID: "p1", Quantity: 4}}))

	var got []item
	ok, err := GetJSON(ctx, st, "cart", &got)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal([]item{{ID: "p1", Quantity: 4}}, got)

	ok, err = GetJSON(ctx, st, "nothing", &got)
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *StoreTestSuite) TestConcurrentWrites() {
	ctx := context.Background()
	st := s.newStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.NoError(st.Set(ctx, "k", "v"))
		}(i)
	}
	wg.Wait()
	v, ok, err := st.Get(ctx, "k")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal("v", v)
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func() Store { return NewMemoryStore() }})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	n := 0
	suite.Run(t, &StoreTestSuite{newStore: func() Store {
		n++
		st, err := NewFileStore(filepath.Join(dir, "nested", "store", string(rune('a'+n))+".json"))
		require.NoError(t, err)
		return st
	}})
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	suite.Run(t, &StoreTestSuite{newStore: func() Store {
		mr.FlushAll()
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return NewRedisStore(client, "test_prefix")
	}})
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "durable.json")

	a, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, "mami_role", "customer"))

	b, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok, err := b.Get(ctx, "mami_role")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "customer", v)
}

func TestRedisStoreUsesPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	st := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "fm")
	require.NoError(t, st.Set(context.Background(), "cart", "[]"))
	v, err := mr.Get("fm:cart")
	require.NoError(t, err)
	require.Equal(t, "[]", v)
}
