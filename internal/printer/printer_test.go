package printer

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billtrack/internal/utils"
)

func testConfig() utils.Config {
	var cfg utils.Config
	cfg.Print.DefaultPaper = "RECEIPT80"
	cfg.Print.PaperSizes = map[string]utils.PaperSize{
		"RECEIPT80": {Width: 3.15, Height: 11.69, PreferCSSPageSize: true},
		"A4":        {Width: 8.27, Height: 11.69},
	}
	cfg.Print.TimeoutSecs = 1
	cfg.Cache.ReceiptCacheEnabled = true
	cfg.Cache.ReceiptCacheTTL = time.Minute
	return cfg
}

func TestCacheKey(t *testing.T) {
	k1 := cacheKey("<html>a</html>", "RECEIPT80")
	k2 := cacheKey("<html>a</html>", "RECEIPT80")
	assert.Equal(t, k1, k2)
	assert.Contains(t, k1, "receiptcache:")

	// paper and content both participate in the key
	assert.NotEqual(t, k1, cacheKey("<html>a</html>", "A4"))
	assert.NotEqual(t, k1, cacheKey("<html>b</html>", "RECEIPT80"))
}

func TestPaperFallback(t *testing.T) {
	s := NewService(testConfig(), nil)

	assert.Equal(t, 8.27, s.paper("A4").Width)
	// unknown names fall back to the default paper
	assert.Equal(t, 3.15, s.paper("LETTER").Width)
	assert.True(t, s.paper("").PreferCSSPageSize)
}

func TestPrintReceipt_CacheHitSkipsChrome(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	html := "<html><body>receipt</body></html>"
	pdf := []byte("%PDF-1.4 cached")
	require.NoError(t, mr.Set(cacheKey(html, "RECEIPT80"), string(pdf)))

	// chrome is never reachable here; a cache hit must not need it
	cfg := testConfig()
	cfg.Print.ChromePath = "/nonexistent/chrome"

	s := NewService(cfg, rdb)
	got, err := s.PrintReceipt(context.Background(), html, "RECEIPT80")
	require.NoError(t, err)
	assert.Equal(t, pdf, got)
}

func TestPrintReceipt_CacheDisabledIgnoresRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	html := "<html><body>receipt</body></html>"
	require.NoError(t, mr.Set(cacheKey(html, "RECEIPT80"), "stale"))

	cfg := testConfig()
	cfg.Cache.ReceiptCacheEnabled = false
	cfg.Print.ChromePath = "/nonexistent/chrome"

	s := NewService(cfg, rdb)
	_, err := s.PrintReceipt(context.Background(), html, "RECEIPT80")
	// with the cache off the render path runs and fails on the missing binary
	assert.Error(t, err)
}

func TestPool_DisabledReturnsNil(t *testing.T) {
	s := NewService(testConfig(), nil)
	pool, err := s.Pool()
	assert.NoError(t, err)
	assert.Nil(t, pool)

	s.Close() // safe without a pool
}
