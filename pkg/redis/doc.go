// Package redis provides the Redis connection layer: an env-configured
// client with startup retries, plus hooks for readiness probes and
// graceful shutdown. The service uses Redis for cross-instance redirect
// cache invalidation.
//
// # Configuration
//
//	REDIS_URL            - Connection URL, redis:// or rediss:// (required)
//	REDIS_POOL_SIZE      - Maximum pool size (default: 10)
//	REDIS_MIN_IDLE_CONNS - Minimum idle connections (default: 5)
//	REDIS_MAX_IDLE_TIME  - Maximum connection idle time (default: 10m)
//	REDIS_MAX_LIFETIME   - Maximum connection lifetime (default: 30m)
//	REDIS_READ_TIMEOUT   - Read timeout (default: 3s)
//	REDIS_WRITE_TIMEOUT  - Write timeout (default: 3s)
//	REDIS_DIAL_TIMEOUT   - Dial timeout (default: 5s)
//	REDIS_RETRY_ATTEMPTS - Connection retry attempts (default: 3)
//	REDIS_RETRY_INTERVAL - Base retry interval (default: 5s)
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
