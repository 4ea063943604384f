package redis

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

func TestKeyFormats(t *testing.T) {
	require.Equal(t, "session:u1:pref:t1", preferenceKey("u1", "t1"))
	require.Equal(t, "session:u1:branches:t1", branchListKey("u1", "t1"))
	require.Equal(t, "calldedup:c1:missed:-1", callDedupKey("c1", domain.CallMissed, -1))
	require.Equal(t, "revoked:abc", revokedKey("abc"))
}

type RedisSuite struct {
	suite.Suite
	client *redis.Client
	user   string
}

// TestRedisSuite runs against a live server when TEST_REDIS_ADDR is set.
func TestRedisSuite(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := Connect(context.Background(), Config{Addr: addr, DB: 15})
	require.NoError(t, err)
	defer client.Close()

	suite.Run(t, &RedisSuite{client: client})
}

func (s *RedisSuite) SetupTest() {
	s.user = "test-" + uuid.Must(uuid.NewV4()).String()
}

func (s *RedisSuite) TearDownTest() {
	_ = NewSessionCache(s.client).Invalidate(context.Background(), s.user)
}

func (s *RedisSuite) TestSessionCache_RoundTripAndInvalidate() {
	ctx := context.Background()
	cache := NewSessionCache(s.client)

	pref, err := cache.PreferredBranch(ctx, s.user, "t1")
	s.Require().NoError(err)
	s.Require().Empty(pref)

	s.Require().NoError(cache.SetPreferredBranch(ctx, s.user, "t1", "b2"))
	s.Require().NoError(cache.SetAvailableBranches(ctx, s.user, "t1", []domain.Branch{{ID: "b1", Name: "North"}}))

	pref, err = cache.PreferredBranch(ctx, s.user, "t1")
	s.Require().NoError(err)
	s.Require().Equal("b2", pref)

	list, ok, err := cache.AvailableBranches(ctx, s.user, "t1")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Len(list, 1)

	s.Require().NoError(cache.Invalidate(ctx, s.user))
	_, ok, err = cache.AvailableBranches(ctx, s.user, "t1")
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *RedisSuite) TestTokenRevocation() {
	ctx := context.Background()
	rev := NewTokenRevocation(s.client)
	jti := s.user
	defer s.client.Del(ctx, revokedKey(jti), revokedKey(jti+"-logout"))

	claimed, err := rev.Claim(ctx, jti, time.Now().Add(time.Minute))
	s.Require().NoError(err)
	s.Require().True(claimed)

	claimed, err = rev.Claim(ctx, jti, time.Now().Add(time.Minute))
	s.Require().NoError(err)
	s.Require().False(claimed, "second claim of the same token must lose")

	s.Require().NoError(rev.Revoke(ctx, jti+"-logout", time.Now().Add(time.Minute)))
	claimed, err = rev.Claim(ctx, jti+"-logout", time.Now().Add(time.Minute))
	s.Require().NoError(err)
	s.Require().False(claimed, "revoked token must not be claimable")

	s.Require().NoError(rev.Revoke(ctx, jti+"-old", time.Now().Add(-time.Minute)))
	n, err := s.client.Exists(ctx, revokedKey(jti+"-old")).Result()
	s.Require().NoError(err)
	s.Require().Zero(n)
	claimed, err = rev.Claim(ctx, jti+"-old", time.Now().Add(-time.Minute))
	s.Require().NoError(err)
	s.Require().False(claimed)
}

func (s *RedisSuite) TestTokenRevocation_ConcurrentClaims() {
	ctx := context.Background()
	rev := NewTokenRevocation(s.client)
	jti := s.user + "-race"
	defer s.client.Del(ctx, revokedKey(jti))

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := rev.Claim(ctx, jti, time.Now().Add(time.Minute)); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Require().Equal(int32(1), wins.Load())
}

func (s *RedisSuite) TestCallDedup() {
	ctx := context.Background()
	d := NewCallDedup(s.client)

	dup, err := d.IsDuplicate(ctx, s.user, domain.CallRinging, 1)
	s.Require().NoError(err)
	s.Require().False(dup)

	s.Require().NoError(d.Mark(ctx, s.user, domain.CallRinging, 1))
	dup, err = d.IsDuplicate(ctx, s.user, domain.CallRinging, 1)
	s.Require().NoError(err)
	s.Require().True(dup)
	s.client.Del(ctx, callDedupKey(s.user, domain.CallRinging, 1))
}
